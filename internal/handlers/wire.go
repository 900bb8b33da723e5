package handlers

// ProtocolFetch is the transport protocol used to fetch resources from a
// remote node's builtin/filesystem handler (spec.md §4.8: "fetch via
// Transport").
const ProtocolFetch = "fetch"

const (
	MsgFetchRequest  = "FETCH_REQUEST"
	MsgFetchResponse = "FETCH_RESPONSE"
)

// FetchRequestPayload asks a remote node to resolve and return one path.
type FetchRequestPayload struct {
	Path string `json:"path"`
}

// FetchResponsePayload is the remote node's answer.
type FetchResponsePayload struct {
	Found       bool   `json:"found"`
	Content     []byte `json:"content"`
	ContentType string `json:"contentType"`
	Error       string `json:"error,omitempty"`
}
