package models

// LyricLine is one line of a song as sent by clients.
type LyricLine struct {
	Words       string `json:"words"`
	StartTimeMs string `json:"startTimeMs"`
}

// FuriganaSegment is a run of text; Reading is set for runs containing kanji.
type FuriganaSegment struct {
	Text    string `json:"text"`
	Reading string `json:"reading,omitempty"`
}

// LyricsRequest is the body of the furigana and translate endpoints.
type LyricsRequest struct {
	Lines          []LyricLine `json:"lines"`
	TargetLanguage string      `json:"targetLanguage,omitempty"`
	Force          bool        `json:"force,omitempty"`
}
