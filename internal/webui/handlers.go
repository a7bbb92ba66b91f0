package webui

import (
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"
)

// StreamLink describes one stream shown on the viewer page
type StreamLink struct {
	Title string
	Path  string
	Audio bool
}

// ViewerHandler renders a page embedding every stream
type ViewerHandler struct {
	streams   []StreamLink
	websocket bool
}

// NewViewerHandler creates a viewer for the given streams
func NewViewerHandler(streams []StreamLink, websocket bool) *ViewerHandler {
	return &ViewerHandler{streams: streams, websocket: websocket}
}

type viewerStream struct {
	Title string
	URL   string
	WSURL string
	Audio bool
}

// ServeHTTP handles requests to /
func (h *ViewerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Media elements cannot send headers, so a token given to the page is
	// forwarded to every stream URL
	token := r.URL.Query().Get("token")

	streams := make([]viewerStream, 0, len(h.streams))
	for _, s := range h.streams {
		vs := viewerStream{
			Title: s.Title,
			URL:   withToken(s.Path, token),
			Audio: s.Audio,
		}
		if h.websocket {
			vs.WSURL = withToken(s.Path+"/ws", token)
		}
		streams = append(streams, vs)
	}

	data := map[string]interface{}{
		"Title":   "Live Streams",
		"Streams": streams,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := GetViewerTemplates().ExecuteTemplate(w, "base.html", data); err != nil {
		log.Error().Err(err).Msg("Failed to render viewer template")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

func withToken(path, token string) string {
	if token == "" {
		return path
	}
	return path + "?" + url.Values{"token": {token}}.Encode()
}
