package export

import (
	"strings"
	"time"
)

const connectionsHeader = "first name,"

// parser turns one file's table into typed records. It reports per-row
// outcomes through the stats it is handed.
type parser struct {
	now   time.Time
	stats KindStats
}

func (p *parser) date(s string) (time.Time, bool) {
	t, fallback := ParseDate(s, p.now)
	if fallback {
		p.stats.DateFallbacks++
	}
	return t, fallback
}

// open reads the table and seeds the row counters. ok is false when there is
// nothing to parse.
func (p *parser) open(content, headerPrefix string) (*table, bool) {
	if strings.TrimSpace(content) == "" {
		return nil, false
	}
	t, err := readTable(content, headerPrefix)
	if err != nil {
		p.stats.Rows++
		p.stats.Malformed++
		return nil, false
	}
	p.stats.Rows = len(t.rows) + t.malformed
	p.stats.Malformed = t.malformed
	return t, true
}

func (p *parser) missing() { p.stats.MissingIdentity++ }
func (p *parser) parsed()  { p.stats.Parsed++ }

func fullName(first, last, whole string) string {
	if n := strings.TrimSpace(first + " " + last); n != "" {
		return n
	}
	return whole
}

// splitList splits a comma separated recipient or URL list.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseConnections(content string, now time.Time) ([]Connection, KindStats) {
	p := &parser{now: now}
	t, ok := p.open(content, connectionsHeader)
	if !ok {
		return nil, p.stats
	}
	var out []Connection
	t.each(func(r row) {
		first, last := r.get("First Name"), r.get("Last Name")
		name := fullName(first, last, r.get("Name", "Full Name"))
		if name == "" {
			p.missing()
			return
		}
		c := Connection{
			FirstName:  first,
			LastName:   last,
			FullName:   name,
			ProfileURL: r.get("URL", "Profile URL", "Public Url"),
			Email:      r.get("Email Address", "Email"),
			Company:    r.get("Company", "Company Name"),
			Position:   r.get("Position", "Title"),
		}
		c.ConnectedOn, c.DateFallback = p.date(r.get("Connected On", "Date"))
		out = append(out, c)
		p.parsed()
	})
	return out, p.stats
}

func parseMessages(content string, now time.Time) ([]Message, KindStats) {
	p := &parser{now: now}
	t, ok := p.open(content, "")
	if !ok {
		return nil, p.stats
	}
	var out []Message
	t.each(func(r row) {
		m := Message{
			ConversationID:       r.get("CONVERSATION ID"),
			ConversationTitle:    r.get("CONVERSATION TITLE"),
			From:                 r.get("FROM", "Sender"),
			SenderProfileURL:     r.get("SENDER PROFILE URL"),
			To:                   splitList(r.get("TO", "Recipients")),
			RecipientProfileURLs: splitList(r.get("RECIPIENT PROFILE URLS", "RECIPIENT PROFILE URL")),
			Subject:              r.get("SUBJECT"),
			Content:              r.get("CONTENT", "Body"),
			Folder:               r.get("FOLDER"),
		}
		if m.From == "" && len(m.To) == 0 {
			p.missing()
			return
		}
		m.Date, m.DateFallback = p.date(r.get("DATE"))
		out = append(out, m)
		p.parsed()
	})
	return out, p.stats
}

// parseEndorsements reads either endorsement file. role is "Endorser" for
// received endorsements and "Endorsee" for given ones.
func parseEndorsements(content, role string, now time.Time) ([]Endorsement, KindStats) {
	p := &parser{now: now}
	t, ok := p.open(content, "")
	if !ok {
		return nil, p.stats
	}
	var out []Endorsement
	t.each(func(r row) {
		first, last := r.get(role+" First Name"), r.get(role+" Last Name")
		name := fullName(first, last, r.get(role, role+" Name", "Name"))
		if name == "" {
			p.missing()
			return
		}
		e := Endorsement{
			Skill:      r.get("Skill Name", "Skill"),
			FirstName:  first,
			LastName:   last,
			FullName:   name,
			ProfileURL: r.get(role+" Public Url", role+" Profile Url", "Profile URL"),
			Status:     r.get("Endorsement Status", "Status"),
		}
		e.Date, e.DateFallback = p.date(r.get("Endorsement Date", "Date"))
		out = append(out, e)
		p.parsed()
	})
	return out, p.stats
}

func parseRecommendations(content string, now time.Time) ([]Recommendation, KindStats) {
	p := &parser{now: now}
	t, ok := p.open(content, "")
	if !ok {
		return nil, p.stats
	}
	var out []Recommendation
	t.each(func(r row) {
		first, last := r.get("First Name"), r.get("Last Name")
		name := fullName(first, last, r.get("Name", "Recommender", "Recommendee"))
		if name == "" {
			p.missing()
			return
		}
		rec := Recommendation{
			FirstName: first,
			LastName:  last,
			FullName:  name,
			Company:   r.get("Company"),
			JobTitle:  r.get("Job Title", "Title"),
			Text:      r.get("Text", "Recommendation"),
			Status:    r.get("Status"),
		}
		rec.Date, rec.DateFallback = p.date(r.get("Creation Date", "Date"))
		out = append(out, rec)
		p.parsed()
	})
	return out, p.stats
}

func parsePositions(content string, now time.Time) ([]Position, KindStats) {
	p := &parser{now: now}
	t, ok := p.open(content, "")
	if !ok {
		return nil, p.stats
	}
	var out []Position
	t.each(func(r row) {
		company := r.get("Company Name", "Company")
		if company == "" {
			p.missing()
			return
		}
		pos := Position{
			CompanyName: company,
			Title:       r.get("Title", "Position"),
			Description: r.get("Description"),
			Location:    r.get("Location"),
		}
		var startFallback, endFallback bool
		pos.StartedOn, startFallback = p.date(r.get("Started On", "Start Date"))
		finished := r.get("Finished On", "End Date")
		pos.Current = finished == ""
		if !pos.Current {
			pos.FinishedOn, endFallback = p.date(finished)
		}
		pos.DateFallback = startFallback || endFallback
		out = append(out, pos)
		p.parsed()
	})
	return out, p.stats
}

func parseInvitations(content string, now time.Time) ([]Invitation, KindStats) {
	p := &parser{now: now}
	t, ok := p.open(content, "")
	if !ok {
		return nil, p.stats
	}
	var out []Invitation
	t.each(func(r row) {
		inv := Invitation{
			From:              r.get("From"),
			To:                r.get("To"),
			Message:           r.get("Message"),
			Direction:         strings.ToUpper(r.get("Direction")),
			InviterProfileURL: r.get("inviterProfileUrl", "Inviter Profile Url"),
			InviteeProfileURL: r.get("inviteeProfileUrl", "Invitee Profile Url"),
		}
		if name, _ := inv.Counterpart(); name == "" {
			p.missing()
			return
		}
		inv.SentAt, inv.DateFallback = p.date(r.get("Sent At", "Date"))
		out = append(out, inv)
		p.parsed()
	})
	return out, p.stats
}

// parseReactions keeps every row with a reaction type or link. Actor columns
// are optional; most exports only carry the link.
func parseReactions(content string, now time.Time) ([]Reaction, KindStats) {
	p := &parser{now: now}
	t, ok := p.open(content, "")
	if !ok {
		return nil, p.stats
	}
	var out []Reaction
	t.each(func(r row) {
		rx := Reaction{
			Type:            r.get("Type", "Reaction Type"),
			Link:            r.get("Link", "Url"),
			Actor:           r.get("Author", "Actor", "Name"),
			ActorProfileURL: r.get("Author Profile Url", "Profile URL"),
		}
		if rx.Type == "" && rx.Link == "" {
			p.missing()
			return
		}
		rx.Date, rx.DateFallback = p.date(r.get("Date"))
		out = append(out, rx)
		p.parsed()
	})
	return out, p.stats
}
