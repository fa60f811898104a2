package gateway

import (
	"net/http"
	"path/filepath"
)

// Assets serves the fingerprinted image routes the mobile client requests.
// The fingerprints are part of the client contract; the files on disk keep
// their plain names.
type Assets struct {
	dir string
}

func NewAssets(dir string) *Assets {
	return &Assets{dir: dir}
}

func (a *Assets) Logo(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(a.dir, "logo.png"))
}

func (a *Assets) Mask(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(a.dir, "small.png"))
}
