package models

type LinkStatus string

const (
	StatusFresh   LinkStatus = "FRESH"
	StatusUsed    LinkStatus = "USED"
	StatusInvalid LinkStatus = "INVALID"
)

// LinkReport состояние одноразовой ссылки по данным ulvis
type LinkReport struct {
	Alias    string     `json:"alias"`
	Status   LinkStatus `json:"link_status"`
	Verdict  string     `json:"fraud_analysis"`
	Evidence Evidence   `json:"evidence"`
}

type Evidence struct {
	Hits             int64  `json:"hits"`
	LastActivity     string `json:"last_activity"`
	LastActivityUnix int64  `json:"last_activity_unix,omitempty"`
}
