package engine

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/lazypower/rapport/internal/config"
	"github.com/lazypower/rapport/internal/export"
	"github.com/lazypower/rapport/internal/graph"
)

var testNow = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(d int) time.Time { return testNow.AddDate(0, 0, -d) }

func testScorer(g *graph.Graph) *scorer {
	return &scorer{g: g, cfg: config.Default(), now: testNow}
}

// testGraph returns a graph anchored on a detected ego keyed "ego".
func testGraph() *graph.Graph {
	g := graph.New("ego", "Me Myself")
	g.Ego = graph.Ego{Name: "Me Myself", Count: 5, Messages: 10}
	return g
}

func addConnection(g *graph.Graph, key, name string, at time.Time) *graph.Person {
	p := g.AddPerson(key, name, "")
	p.Connected = true
	p.Lightweight = false
	g.AddEdge(graph.Edge{From: g.EgoKey, To: key, Type: graph.EdgeConnection, At: at, Dated: !at.IsZero()})
	return p
}

func link(g *graph.Graph, from, to string, typ graph.EdgeType, at time.Time) *graph.Edge {
	return g.AddEdge(graph.Edge{From: from, To: to, Type: typ, At: at, Dated: true})
}

func healthOf(t *testing.T, hs []HealthScore, key string) HealthScore {
	t.Helper()
	for _, h := range hs {
		if h.Key == key {
			return h
		}
	}
	t.Fatalf("no health score for %q", key)
	return HealthScore{}
}

func TestDecayHalvesPerHalfLife(t *testing.T) {
	if got := Decay(2, 90, 90); math.Abs(got-1) > 1e-9 {
		t.Errorf("Decay(2, 90, 90) = %v, want 1", got)
	}
	if got := Decay(1, -30, 90); got != 1 {
		t.Errorf("future date decayed to %v", got)
	}
	prev := Decay(1, 0, 90)
	for age := 10.0; age <= 2000; age += 10 {
		got := Decay(1, age, 90)
		if got >= prev {
			t.Fatalf("Decay not decreasing at age %v: %v >= %v", age, got, prev)
		}
		prev = got
	}
}

func TestSaturateBounds(t *testing.T) {
	if got := Saturate(0, 2); got != 0 {
		t.Errorf("Saturate(0) = %v", got)
	}
	if got := Saturate(-3, 2); got != 0 {
		t.Errorf("Saturate(-3) = %v", got)
	}
	if got := Saturate(1e9, 2); got > 100 {
		t.Errorf("Saturate(1e9) = %v, want <= 100", got)
	}
	prev := 0.0
	for sum := 0.5; sum < 20; sum += 0.5 {
		got := Saturate(sum, 2)
		if got < prev {
			t.Fatalf("Saturate not monotone at %v", sum)
		}
		prev = got
	}
}

func TestHealthConnectionAndOldMessage(t *testing.T) {
	g := testGraph()
	addConnection(g, "alice", "Alice Smith", daysAgo(730))
	link(g, "ego", "alice", graph.EdgeMessage, daysAgo(182))

	h := healthOf(t, testScorer(g).Health(), "alice")
	if h.Status != HealthCooling {
		t.Errorf("status = %s (score %v), want cooling", h.Status, h.Score)
	}
	if h.Score != 27.3 {
		t.Errorf("score = %v, want 27.3", h.Score)
	}
	if h.DaysSinceContact != 182 {
		t.Errorf("days since contact = %d, want 182", h.DaysSinceContact)
	}
	if len(h.Modifiers) != 0 {
		t.Errorf("unexpected modifiers: %+v", h.Modifiers)
	}
}

func TestHealthUndatedConnectionIsKept(t *testing.T) {
	g := testGraph()
	addConnection(g, "alice", "Alice Smith", time.Time{})

	h := healthOf(t, testScorer(g).Health(), "alice")
	if h.Score <= 0 {
		t.Errorf("undated connection scored %v, want > 0", h.Score)
	}
	if h.Status != HealthDormant {
		t.Errorf("status = %s, want dormant", h.Status)
	}
	if h.LastInteraction != nil || h.DaysSinceContact != -1 {
		t.Errorf("undated edge reported contact: %+v", h)
	}
}

func TestHealthUnscoredWithoutEgoEdge(t *testing.T) {
	g := testGraph()
	addConnection(g, "alice", "Alice Smith", daysAgo(10))
	g.AddPerson("bob", "Bob Lee", "")
	link(g, "alice", "bob", graph.EdgeMessage, daysAgo(3))

	hs := testScorer(g).Health()
	if h := healthOf(t, hs, "bob"); h.Status != HealthUnscored || h.Score != 0 {
		t.Errorf("bob = %+v, want unscored", h)
	}
	if hs[0].Key != "alice" {
		t.Errorf("health not sorted by score: %+v", hs)
	}
}

func TestHealthModifiers(t *testing.T) {
	g := testGraph()
	g.People["ego"].Positions = []graph.Position{{Company: "Globex", Current: true}}
	p := addConnection(g, "alice", "Alice Smith", daysAgo(400))
	p.Positions = []graph.Position{{Company: "Globex, Inc.", Current: true}}

	for i := 0; i < 3; i++ {
		e := link(g, "alice", "ego", graph.EdgeMessage, daysAgo(300+i))
		e.Conversation, e.TextLen = "c1", 250
	}
	link(g, "ego", "alice", graph.EdgeMessage, daysAgo(299)).Conversation = "c1"
	link(g, "alice", "ego", graph.EdgeEndorsementReceived, daysAgo(200))
	link(g, "ego", "alice", graph.EdgeReaction, daysAgo(100))

	h := healthOf(t, testScorer(g).Health(), "alice")
	var names []string
	for _, m := range h.Modifiers {
		names = append(names, m.Name)
	}
	want := []string{ModCurrentColleague, ModTheyInitiated, ModDeepConversation, ModMultiChannel}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("modifiers (-want +got):\n%s", diff)
	}
}

func TestVouchCombinedSignalsScoreHigher(t *testing.T) {
	g := testGraph()
	for _, k := range []string{"end", "rec", "both"} {
		addConnection(g, k, strings.ToUpper(k), daysAgo(500))
	}
	link(g, "end", "ego", graph.EdgeEndorsementReceived, daysAgo(10))
	link(g, "both", "ego", graph.EdgeEndorsementReceived, daysAgo(10))
	link(g, "rec", "ego", graph.EdgeRecommendationReceived, daysAgo(20)).TextLen = 300
	link(g, "both", "ego", graph.EdgeRecommendationReceived, daysAgo(20)).TextLen = 300

	s := testScorer(g)
	scores := make(map[string]VouchScore)
	for _, v := range s.Vouch(s.Ledger()) {
		scores[v.Key] = v
	}
	both, end, rec := scores["both"], scores["end"], scores["rec"]
	if both.Score <= end.Score || both.Score <= rec.Score {
		t.Errorf("combined %v not above endorsement %v and recommendation %v", both.Score, end.Score, rec.Score)
	}
	if end.Factors.Reciprocity != 0 {
		t.Errorf("received-only reciprocity = %v, want 0", end.Factors.Reciprocity)
	}
	if both.Score > 100 || both.Score < 0 {
		t.Errorf("score out of range: %v", both.Score)
	}
}

func TestVouchSharedHistory(t *testing.T) {
	g := testGraph()
	g.People["ego"].Positions = []graph.Position{
		{Company: "Initech", Start: daysAgo(2000), End: daysAgo(1000)},
		{Company: "Globex", Current: true},
	}
	cur := addConnection(g, "cur", "Current Colleague", daysAgo(30))
	cur.Positions = []graph.Position{{Company: "Globex", Current: true}}
	past := addConnection(g, "past", "Past Colleague", daysAgo(30))
	past.Positions = []graph.Position{{Company: "Initech", Start: daysAgo(1800), End: daysAgo(1400)}}

	s := testScorer(g)
	vc := s.cfg.Vouch
	if got := s.sharedHistory("cur"); got != vc.SharedHistoryMax {
		t.Errorf("current shared history = %v, want %v", got, vc.SharedHistoryMax)
	}
	want := vc.SharedHistoryMax * vc.SharedPastFraction * 400 / vc.SharedHistoryFullDays
	if got := s.sharedHistory("past"); math.Abs(got-want) > 1e-6 {
		t.Errorf("past shared history = %v, want %v", got, want)
	}
}

func TestVouchLevel(t *testing.T) {
	tests := map[float64]string{
		95: VouchStrongAdvocate, 80: VouchStrongAdvocate, 61: VouchReliable,
		40: VouchPositive, 25: VouchLukewarm, 0: VouchWeak,
	}
	for score, want := range tests {
		if got := VouchLevel(score); got != want {
			t.Errorf("VouchLevel(%v) = %s, want %s", score, got, want)
		}
	}
}

func TestLedgerTallies(t *testing.T) {
	g := testGraph()
	addConnection(g, "alice", "Alice Smith", daysAgo(100))
	for i := 0; i < 3; i++ {
		link(g, "ego", "alice", graph.EdgeEndorsementGiven, daysAgo(50+i))
	}
	link(g, "alice", "ego", graph.EdgeEndorsementReceived, daysAgo(40))
	link(g, "ego", "alice", graph.EdgeMessage, daysAgo(20))

	ledger := testScorer(g).Ledger()
	if len(ledger) != 1 {
		t.Fatalf("ledger has %d entries, want 1", len(ledger))
	}
	le := ledger[0]
	if le.Endorsements.Summary != "you endorse them 3× more than they endorse you" {
		t.Errorf("endorsement summary = %q", le.Endorsements.Summary)
	}
	if le.Recommendations.Summary != "no recommendations either way" {
		t.Errorf("recommendation summary = %q", le.Recommendations.Summary)
	}
	if le.PointsGiven != 7 || le.PointsReceived != 2 || le.Status != LedgerTheyOweYou {
		t.Errorf("entry = %+v", le)
	}
	if !le.MessagesScored {
		t.Error("messages not scored with a detected ego")
	}
}

func TestLedgerWithoutEgoSkipsMessages(t *testing.T) {
	g := graph.New(graph.PlaceholderEgoKey, "")
	g.Ego = graph.Ego{Ambiguous: true}
	addConnection(g, "alice", "Alice Smith", daysAgo(100))
	link(g, graph.PlaceholderEgoKey, "alice", graph.EdgeMessage, daysAgo(20))
	link(g, "alice", graph.PlaceholderEgoKey, graph.EdgeEndorsementReceived, daysAgo(20))

	le := testScorer(g).Ledger()[0]
	if le.MessagesScored {
		t.Error("messages scored without a detected ego")
	}
	if le.PointsGiven != 0 || le.PointsReceived != 2 {
		t.Errorf("points = %d/%d, want 0/2", le.PointsGiven, le.PointsReceived)
	}
}

func TestTallySummaries(t *testing.T) {
	tests := []struct {
		given, received int
		want            string
	}{
		{0, 0, "no endorsements either way"},
		{2, 2, "you endorse each other equally"},
		{2, 0, "you endorse them; they have not endorsed you"},
		{0, 1, "they endorse you; you have not endorsed them"},
		{1, 3, "they endorse you 3× more than you endorse them"},
	}
	for _, tt := range tests {
		if got := tally(tt.given, tt.received, "endorse").Summary; got != tt.want {
			t.Errorf("tally(%d, %d) = %q, want %q", tt.given, tt.received, got, tt.want)
		}
	}
}

func ruleFor(st ArchetypeStats) string {
	for _, r := range archetypeRules {
		if r.match(st) {
			return r.id
		}
	}
	return ""
}

func TestArchetypeRules(t *testing.T) {
	tests := []struct {
		name string
		st   ArchetypeStats
		want string
	}{
		{"nothing scored", ArchetypeStats{}, "empty"},
		{"all cold", ArchetypeStats{Scored: 10, WarmRatio: 0.05, Bridging: 0.9}, "dormant"},
		{"bridging and warm", ArchetypeStats{Scored: 10, WarmRatio: 0.4, Bridging: 0.7}, "bridge_builder"},
		{"tight circle", ArchetypeStats{Scored: 10, WarmRatio: 0.6, Bridging: 0.2}, "deep_tie"},
		{"gives more", ArchetypeStats{Scored: 10, WarmRatio: 0.3, Bridging: 0.5, ReciprocityMean: 0.5}, "giver"},
		{"takes more", ArchetypeStats{Scored: 10, WarmRatio: 0.3, Bridging: 0.5, ReciprocityMean: -0.5}, "beneficiary"},
		{"wide but cool", ArchetypeStats{Scored: 10, WarmRatio: 0.2, Bridging: 0.8}, "wide_connector"},
		{"middle", ArchetypeStats{Scored: 10, WarmRatio: 0.3, Bridging: 0.5}, "balanced"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ruleFor(tt.st); got != tt.want {
				t.Errorf("rule = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestArchetypeEmptyGraph(t *testing.T) {
	s := testScorer(testGraph())
	a := s.Archetype(nil, nil, &export.Records{})
	if a.Rule != "empty" || a.Recommendation == "" {
		t.Errorf("archetype = %+v", a)
	}
}

func TestCommunitiesAndBridging(t *testing.T) {
	g := testGraph()
	for _, k := range []string{"a", "b", "c", "d", "e", "f"} {
		addConnection(g, k, strings.ToUpper(k), daysAgo(30))
	}
	for _, pair := range [][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}, {"d", "e"}, {"e", "f"}, {"d", "f"}} {
		link(g, pair[0], pair[1], graph.EdgeMessage, daysAgo(5))
	}

	labels := communities(g)
	if labels["a"] != labels["b"] || labels["b"] != labels["c"] {
		t.Errorf("first triangle split: %v", labels)
	}
	if labels["a"] == labels["d"] {
		t.Errorf("triangles merged: %v", labels)
	}
	score, groups := bridgingScore(g, labels)
	if groups != 2 {
		t.Errorf("groups = %d, want 2", groups)
	}
	if math.Abs(score-0.6) > 1e-9 {
		t.Errorf("bridging = %v, want 0.6", score)
	}
}

func TestBridgingSingleConnection(t *testing.T) {
	g := testGraph()
	addConnection(g, "a", "A", daysAgo(30))
	if score, _ := bridgingScore(g, communities(g)); score != 0 {
		t.Errorf("bridging = %v, want 0", score)
	}
}

func TestNameSimilarity(t *testing.T) {
	if got := nameSimilarity("Bob Lee", "bob  lee"); got != 1 {
		t.Errorf("identical names = %v", got)
	}
	if got := nameSimilarity("Bob", "Bob Lee"); got < 0.5 {
		t.Errorf("token containment = %v, want >= 0.5", got)
	}
	if got := nameSimilarity("Zed Quux", "Alice Smith"); got > 0.2 {
		t.Errorf("unrelated names = %v", got)
	}

	g := testGraph()
	addConnection(g, "jon", "Jon Smith", daysAgo(30))
	addConnection(g, "ann", "Ann Jones", daysAgo(30))
	if k, _, ok := fuzzyLookup(g, "John Smith", 0.55); !ok || k != "jon" {
		t.Errorf("fuzzyLookup = %q %v, want jon", k, ok)
	}
	if _, _, ok := fuzzyLookup(g, "Zed Quux", 0.55); ok {
		t.Error("fuzzyLookup matched an unrelated name")
	}
}

func TestResurrectHooks(t *testing.T) {
	msg := func(conv, from, to string, days int, content string) export.Message {
		return export.Message{ConversationID: conv, From: from, To: []string{to}, Date: daysAgo(days), Content: content}
	}
	recs := &export.Records{Messages: []export.Message{
		msg("c1", "Me Myself", "Alice Smith", 200, "Good to meet you"),
		msg("c1", "Alice Smith", "Me Myself", 199, "We should catch up over coffee sometime"),
		msg("c2", "Bob Lee", "Me Myself", 120, "Are you still at Acme?"),
		msg("c3", "Carol White", "Me Myself", 100, "There is a role on my team you might like"),
		msg("c4", "Dan Brown", "Me Myself", 10, "thanks!"),
		msg("c5", "Me Myself", "Erin Gray", 400, "Congrats on the launch"),
	}}
	ego := graph.DetectEgo(recs.Messages, 2)
	if ego.Ambiguous {
		t.Fatal("ego not detected")
	}
	g := graph.Build(recs, ego, graph.Options{Now: testNow})

	opps := testScorer(g).Resurrect(recs)
	type got struct {
		Name string
		Days int
		Hook string
	}
	var have []got
	for _, o := range opps {
		have = append(have, got{o.Name, o.DaysDormant, o.HookType})
		if o.SuggestedOpener == "" {
			t.Errorf("%s has no opener", o.Name)
		}
	}
	want := []got{
		{"Carol White", 100, HookOpportunityMentioned},
		{"Bob Lee", 120, HookUnansweredQuestion},
		{"Alice Smith", 199, HookPromisedCatchup},
		{"Erin Gray", 400, HookGeneric},
	}
	if diff := cmp.Diff(want, have); diff != "" {
		t.Errorf("opportunities (-want +got):\n%s", diff)
	}
}

func TestResurrectNeedsEgo(t *testing.T) {
	g := graph.New(graph.PlaceholderEgoKey, "")
	g.Ego = graph.Ego{Ambiguous: true}
	if opps := testScorer(g).Resurrect(&export.Records{}); opps != nil {
		t.Errorf("opportunities without ego: %+v", opps)
	}
}

func TestSnippet(t *testing.T) {
	long := strings.Repeat("é", 150)
	got := snippet(long)
	if n := len([]rune(got)); n != snippetLen+3 {
		t.Errorf("snippet length = %d runes, want %d", n, snippetLen+3)
	}
	if snippet("  short  ") != "short" {
		t.Errorf("short snippet = %q", snippet("  short  "))
	}
}
