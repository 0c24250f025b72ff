package audio

import (
	"context"
	"net/http"
	"time"
)

// Info describes a source without playing it.
type Info struct {
	URI        string        `json:"uri"`
	MIME       string        `json:"mime"`
	Size       int           `json:"size"`
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`
	Duration   time.Duration `json:"duration"`
}

// Probe fetches and decodes uri far enough to report its format and length.
// maxSize is passed to Fetch.
func Probe(ctx context.Context, client *http.Client, uri string, maxSize int64) (*Info, error) {
	media, err := Fetch(ctx, client, uri, maxSize)
	if err != nil {
		return nil, err
	}

	s, format, err := Decode(media)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	return &Info{
		URI:        uri,
		MIME:       media.MIME,
		Size:       media.Size(),
		SampleRate: int(format.SampleRate),
		Channels:   format.NumChannels,
		Duration:   format.SampleRate.D(s.Len()),
	}, nil
}
