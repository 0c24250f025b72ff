package core

// Track describes the audio resource a session is bound to, together with the
// metadata the shell displays next to the controls.
type Track struct {
	URI      string `json:"uri"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	CoverArt string `json:"cover_art"`
}

// Label returns "Artist - Title", or whichever of the two is set.
func (t *Track) Label() string {
	if t == nil {
		return ""
	}
	switch {
	case t.Artist != "" && t.Title != "":
		return t.Artist + " - " + t.Title
	case t.Title != "":
		return t.Title
	default:
		return t.Artist
	}
}
