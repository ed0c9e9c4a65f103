package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// OutlineRequest records a request made to an OutlineServer.
type OutlineRequest struct {
	Method        string
	Authorization string
	Body          map[string]interface{}
}

// OutlineDocument is a document stored in an OutlineServer.
type OutlineDocument struct {
	ID       string
	ParentID string
	Title    string
	Text     string
}

// OutlineServer is a fake Outline API server that stores documents in memory.
// Its exported fields may be modified between requests to control its
// behavior.
type OutlineServer struct {
	*httptest.Server

	// Token is the bearer token that every request must carry.
	Token string
	// FailMethods maps API methods (e.g. "documents.delete") to a status code
	// that the method responds with instead of succeeding.
	FailMethods map[string]int
	// Pages, if set, are returned verbatim by documents.list in order, one per
	// request, instead of listing stored documents. Requests beyond the last
	// page get an empty page.
	Pages []string

	mu       sync.Mutex
	docs     []OutlineDocument
	nextID   int
	requests []OutlineRequest
}

// NewOutlineServer starts a new fake Outline server that is closed when the
// test finishes.
func NewOutlineServer(t *testing.T) *OutlineServer {
	s := &OutlineServer{
		Token:       "api-token",
		FailMethods: map[string]int{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// AddDocument stores a document and returns its generated ID.
func (s *OutlineServer) AddDocument(parentID, title, text string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addDocument(parentID, title, text)
}

func (s *OutlineServer) addDocument(parentID, title, text string) string {
	s.nextID++
	id := fmt.Sprintf("doc-%d", s.nextID)
	s.docs = append(s.docs, OutlineDocument{ID: id, ParentID: parentID, Title: title, Text: text})
	return id
}

// Document returns the stored document with the ID.
func (s *OutlineServer) Document(id string) (OutlineDocument, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range s.docs {
		if doc.ID == id {
			return doc, true
		}
	}
	return OutlineDocument{}, false
}

// Requests returns all the requests the server received.
func (s *OutlineServer) Requests() []OutlineRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]OutlineRequest(nil), s.requests...)
}

// ListOffsets returns the offsets of all the documents.list requests in the
// order they were received.
func (s *OutlineServer) ListOffsets() []int {
	var offsets []int
	for _, r := range s.Requests() {
		if r.Method != "documents.list" {
			continue
		}
		offset, _ := r.Body["offset"].(float64)
		offsets = append(offsets, int(offset))
	}
	return offsets
}

func (s *OutlineServer) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	method := strings.TrimPrefix(r.URL.Path, "/api/")
	req := OutlineRequest{
		Method:        method,
		Authorization: r.Header.Get("Authorization"),
	}
	if err := json.NewDecoder(r.Body).Decode(&req.Body); err != nil {
		s.requests = append(s.requests, req)
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"ok": false, "error": err.Error()})
		return
	}
	s.requests = append(s.requests, req)

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]interface{}{"ok": false})
		return
	}
	if req.Authorization != "Bearer "+s.Token {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"ok": false, "error": "authentication_required"})
		return
	}
	if status, ok := s.FailMethods[method]; ok {
		writeJSON(w, status, map[string]interface{}{"ok": false, "error": "failed"})
		return
	}

	id, _ := req.Body["id"].(string)
	switch method {
	case "documents.info":
		for _, doc := range s.docs {
			if doc.ID == id {
				writeJSON(w, http.StatusOK, map[string]interface{}{"data": documentJSON(doc)})
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"ok": false, "error": "not_found"})
	case "documents.update":
		for i, doc := range s.docs {
			if doc.ID == id {
				s.docs[i].Text, _ = req.Body["text"].(string)
				writeJSON(w, http.StatusOK, map[string]interface{}{"data": documentJSON(s.docs[i])})
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"ok": false, "error": "not_found"})
	case "documents.delete":
		for i, doc := range s.docs {
			if doc.ID == id {
				s.docs = append(s.docs[:i], s.docs[i+1:]...)
				writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"ok": false, "error": "not_found"})
	case "documents.create":
		if publish, _ := req.Body["publish"].(bool); !publish {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"ok": false, "error": "publish required"})
			return
		}
		parentID, _ := req.Body["parentDocumentId"].(string)
		title, _ := req.Body["title"].(string)
		text, _ := req.Body["text"].(string)
		s.addDocument(parentID, title, text)
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": documentJSON(s.docs[len(s.docs)-1])})
	case "documents.list":
		s.handleList(w, req.Body)
	default:
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"ok": false, "error": "unknown method"})
	}
}

func (s *OutlineServer) handleList(w http.ResponseWriter, body map[string]interface{}) {
	if s.Pages != nil {
		numLists := 0
		for _, r := range s.requests {
			if r.Method == "documents.list" {
				numLists++
			}
		}
		w.Header().Set("Content-Type", "application/json")
		if numLists > len(s.Pages) {
			_, _ = w.Write([]byte(`{"data":[],"pagination":{}}`))
			return
		}
		_, _ = w.Write([]byte(s.Pages[numLists-1]))
		return
	}

	parentID, _ := body["parentDocumentId"].(string)
	limit, _ := body["limit"].(float64)
	offset, _ := body["offset"].(float64)

	var children []OutlineDocument
	for _, doc := range s.docs {
		if doc.ParentID == parentID {
			children = append(children, doc)
		}
	}

	start := min(int(offset), len(children))
	end := min(start+int(limit), len(children))
	data := []map[string]interface{}{}
	for _, doc := range children[start:end] {
		data = append(data, documentJSON(doc))
	}

	// Like the real API, the next page path is always present, even after the
	// last page.
	pagination := map[string]interface{}{
		"limit":    int(limit),
		"offset":   int(offset),
		"nextPath": fmt.Sprintf("/api/documents.list?limit=%d&offset=%d", int(limit), int(offset)+int(limit)),
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": data, "pagination": pagination})
}

func documentJSON(doc OutlineDocument) map[string]interface{} {
	return map[string]interface{}{
		"id":               doc.ID,
		"parentDocumentId": doc.ParentID,
		"title":            doc.Title,
		"text":             doc.Text,
	}
}
