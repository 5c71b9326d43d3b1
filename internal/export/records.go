package export

import "time"

// Kind names one export file type.
type Kind string

const (
	KindConnections             Kind = "connections"
	KindMessages                Kind = "messages"
	KindEndorsementsReceived    Kind = "endorsements_received"
	KindEndorsementsGiven       Kind = "endorsements_given"
	KindRecommendationsReceived Kind = "recommendations_received"
	KindRecommendationsGiven    Kind = "recommendations_given"
	KindPositions               Kind = "positions"
	KindInvitations             Kind = "invitations"
	KindReactions               Kind = "reactions"
)

// Kinds lists every supported export kind in a stable order.
var Kinds = []Kind{
	KindConnections,
	KindMessages,
	KindEndorsementsReceived,
	KindEndorsementsGiven,
	KindRecommendationsReceived,
	KindRecommendationsGiven,
	KindPositions,
	KindInvitations,
	KindReactions,
}

// Valid reports whether k is a known export kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// FileNames maps each kind to the file name used in a LinkedIn data export.
var FileNames = map[Kind]string{
	KindConnections:             "Connections.csv",
	KindMessages:                "messages.csv",
	KindEndorsementsReceived:    "Endorsement_Received_Info.csv",
	KindEndorsementsGiven:       "Endorsement_Given_Info.csv",
	KindRecommendationsReceived: "Recommendations_Received.csv",
	KindRecommendationsGiven:    "Recommendations_Given.csv",
	KindPositions:               "Positions.csv",
	KindInvitations:             "Invitations.csv",
	KindReactions:               "Reactions.csv",
}

// Files holds one raw text blob per export kind.
type Files map[Kind]string

// Connection is one row of Connections.csv.
type Connection struct {
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	FullName     string    `json:"full_name"`
	ProfileURL   string    `json:"profile_url,omitempty"`
	Email        string    `json:"email,omitempty"`
	Company      string    `json:"company,omitempty"`
	Position     string    `json:"position,omitempty"`
	ConnectedOn  time.Time `json:"connected_on"`
	DateFallback bool      `json:"date_fallback,omitempty"`
}

// Message is one row of messages.csv. Group messages carry several recipients.
type Message struct {
	ConversationID       string    `json:"conversation_id"`
	ConversationTitle    string    `json:"conversation_title,omitempty"`
	From                 string    `json:"from"`
	SenderProfileURL     string    `json:"sender_profile_url,omitempty"`
	To                   []string  `json:"to"`
	RecipientProfileURLs []string  `json:"recipient_profile_urls,omitempty"`
	Date                 time.Time `json:"date"`
	DateFallback         bool      `json:"date_fallback,omitempty"`
	Subject              string    `json:"subject,omitempty"`
	Content              string    `json:"content"`
	Folder               string    `json:"folder,omitempty"`
}

// Endorsement is one skill endorsement. For received endorsements the person
// is the endorser; for given endorsements it is the endorsee.
type Endorsement struct {
	Skill        string    `json:"skill"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	FullName     string    `json:"full_name"`
	ProfileURL   string    `json:"profile_url,omitempty"`
	Date         time.Time `json:"date"`
	DateFallback bool      `json:"date_fallback,omitempty"`
	Status       string    `json:"status,omitempty"`
}

// Recommendation is one written recommendation. The person is the
// recommender (received) or the recommendee (given).
type Recommendation struct {
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	FullName     string    `json:"full_name"`
	Company      string    `json:"company,omitempty"`
	JobTitle     string    `json:"job_title,omitempty"`
	Text         string    `json:"text"`
	Date         time.Time `json:"date"`
	DateFallback bool      `json:"date_fallback,omitempty"`
	Status       string    `json:"status,omitempty"`
}

// Position is one job held by the export owner.
type Position struct {
	CompanyName  string    `json:"company_name"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Location     string    `json:"location,omitempty"`
	StartedOn    time.Time `json:"started_on"`
	FinishedOn   time.Time `json:"finished_on"`
	Current      bool      `json:"current"`
	DateFallback bool      `json:"date_fallback,omitempty"`
}

// Invitation directions as exported.
const (
	DirectionIncoming = "INCOMING"
	DirectionOutgoing = "OUTGOING"
)

// Invitation is one connection invitation, sent or received.
type Invitation struct {
	From              string    `json:"from"`
	To                string    `json:"to"`
	SentAt            time.Time `json:"sent_at"`
	DateFallback      bool      `json:"date_fallback,omitempty"`
	Message           string    `json:"message,omitempty"`
	Direction         string    `json:"direction"`
	InviterProfileURL string    `json:"inviter_profile_url,omitempty"`
	InviteeProfileURL string    `json:"invitee_profile_url,omitempty"`
}

// Counterpart returns the name and profile URL of the person on the other
// side of the invitation.
func (i Invitation) Counterpart() (name, url string) {
	if i.Direction == DirectionIncoming {
		return i.From, i.InviterProfileURL
	}
	return i.To, i.InviteeProfileURL
}

// Reaction is one reaction by the export owner. Actor fields are only set
// when the export names the author of the reacted-to content.
type Reaction struct {
	Date            time.Time `json:"date"`
	DateFallback    bool      `json:"date_fallback,omitempty"`
	Type            string    `json:"type"`
	Link            string    `json:"link,omitempty"`
	Actor           string    `json:"actor,omitempty"`
	ActorProfileURL string    `json:"actor_profile_url,omitempty"`
}

// Records is the typed output of parsing a full export.
type Records struct {
	Connections             []Connection     `json:"connections"`
	Messages                []Message        `json:"messages"`
	EndorsementsReceived    []Endorsement    `json:"endorsements_received"`
	EndorsementsGiven       []Endorsement    `json:"endorsements_given"`
	RecommendationsReceived []Recommendation `json:"recommendations_received"`
	RecommendationsGiven    []Recommendation `json:"recommendations_given"`
	Positions               []Position       `json:"positions"`
	Invitations             []Invitation     `json:"invitations"`
	Reactions               []Reaction       `json:"reactions"`
}

// Interactions counts every parsed row that can contribute to the graph.
func (r *Records) Interactions() int {
	return len(r.Connections) + len(r.Messages) +
		len(r.EndorsementsReceived) + len(r.EndorsementsGiven) +
		len(r.RecommendationsReceived) + len(r.RecommendationsGiven) +
		len(r.Invitations) + len(r.Reactions)
}

// KindStats tallies what happened to the rows of one file.
type KindStats struct {
	Rows            int `json:"rows"`
	Parsed          int `json:"parsed"`
	Malformed       int `json:"malformed"`
	MissingIdentity int `json:"missing_identity"`
	DateFallbacks   int `json:"date_fallbacks"`
}

// ParseStats holds per-kind row accounting.
type ParseStats map[Kind]KindStats

// Skipped returns the total number of rows dropped across all kinds.
func (s ParseStats) Skipped() int {
	n := 0
	for _, k := range s {
		n += k.Malformed + k.MissingIdentity
	}
	return n
}

// DateFallbacks returns the total number of rows dated "now" because their
// date could not be parsed.
func (s ParseStats) DateFallbacks() int {
	n := 0
	for _, k := range s {
		n += k.DateFallbacks
	}
	return n
}
