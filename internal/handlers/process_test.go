package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSandbox struct {
	ok     bool
	output string
	errMsg string
}

func (s stubSandbox) Execute(ctx context.Context, code string, req DynamicRequest) (bool, string, string) {
	return s.ok, s.output, s.errMsg
}

func TestProcessMarkup(t *testing.T) {
	p := NewProcessor(NewBasicMarkupParser(), nil)
	result, err := p.Process(context.Background(), KindMarkup, []byte("<page><title>Hi</title></page>"), DynamicRequest{})
	require.NoError(t, err)
	assert.Equal(t, KindMarkup, result.Kind)
	assert.Equal(t, "Hi", result.Title)
}

func TestProcessText(t *testing.T) {
	p := NewProcessor(nil, nil)
	result, err := p.Process(context.Background(), KindText, []byte("plain text"), DynamicRequest{})
	require.NoError(t, err)
	assert.Equal(t, "plain text", result.Text)
}

func TestProcessDynamicSuccessReturnsParsedMarkup(t *testing.T) {
	sb := stubSandbox{ok: true, output: "<page><title>Dyn</title></page>"}
	p := NewProcessor(NewBasicMarkupParser(), sb)
	result, err := p.Process(context.Background(), KindDynamic, []byte("return render()"), DynamicRequest{URL: "rdnt://x"})
	require.NoError(t, err)
	assert.Equal(t, KindMarkup, result.Kind)
	assert.Equal(t, "Dyn", result.Title)
}

func TestProcessDynamicSandboxErrorSurfaces(t *testing.T) {
	sb := stubSandbox{ok: false, errMsg: "timeout"}
	p := NewProcessor(NewBasicMarkupParser(), sb)
	_, err := p.Process(context.Background(), KindDynamic, []byte("loop forever"), DynamicRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestProcessDynamicNonMarkupOutputReturnsText(t *testing.T) {
	sb := stubSandbox{ok: true, output: "just some text"}
	p := NewProcessor(nil, sb)
	result, err := p.Process(context.Background(), KindDynamic, []byte("print('x')"), DynamicRequest{})
	require.NoError(t, err)
	assert.Equal(t, KindText, result.Kind)
	assert.Equal(t, "just some text", result.Text)
}
