package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// MsgpackContentType is the media type of MessagePack responses
const MsgpackContentType = "application/msgpack"

// Response represents a standardized API error response
type Response struct {
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
	Details string      `json:"details,omitempty"`
	Hint    interface{} `json:"hint,omitempty"`
}

// WriteJSON writes data with a 200 status
func WriteJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	json.NewEncoder(w).Encode(data)
}

// WriteRows writes rows with the row count header.
// Rows are encoded as MessagePack when accept asks for it, JSON otherwise.
func WriteRows(w http.ResponseWriter, accept string, rows []map[string]interface{}) {
	w.Header().Set("X-Total-Count", fmt.Sprintf("%d", len(rows)))

	if strings.Contains(accept, MsgpackContentType) {
		data, err := msgpack.Marshal(rows)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "Encoding failed", err.Error(), nil)
			return
		}
		w.Header().Set("Content-Type", MsgpackContentType)
		w.WriteHeader(http.StatusOK)
		w.Write(data)
		return
	}

	WriteJSON(w, rows)
}
