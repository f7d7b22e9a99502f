package service

import "strings"

const spotifyTrackMarker = "open.spotify.com/track/"

// ExtractTrackID pulls the track id out of a pasted Spotify link, cutting
// the path segment at the first '?' or '/'. Anything that does not look
// like a track link passes through unchanged. Pure string transform.
func ExtractTrackID(raw string) string {
	_, after, found := strings.Cut(raw, spotifyTrackMarker)
	if !found {
		return raw
	}
	if i := strings.IndexAny(after, "?/"); i >= 0 {
		after = after[:i]
	}
	if after == "" {
		return raw
	}
	return after
}
