package nbastats

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/patrickmn/go-cache"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/nhle/gamewatch/internal/model"
	"github.com/nhle/gamewatch/internal/source"
)

// Date formats the stats API expects in query parameters.
const (
	paramDateLayout      = "01/02/2006"
	scoreboardDateLayout = "2006-01-02"
)

const (
	gameStatusFinal = 3
	playersCacheTTL = 24 * time.Hour
)

// Config holds adapter settings.
type Config struct {
	BaseURL           string
	Season            string
	Timeout           time.Duration
	RequestsPerSecond float64
	AffiliationTTL    time.Duration
}

// Adapter implements source.Directory, source.EventFeed and
// source.Affiliations on top of the stats API.
type Adapter struct {
	client *Client
	season string
	cache  *cache.Cache
	ttl    time.Duration
}

var (
	_ source.Directory    = (*Adapter)(nil)
	_ source.EventFeed    = (*Adapter)(nil)
	_ source.Affiliations = (*Adapter)(nil)
)

// NewAdapter creates a stats API adapter.
func NewAdapter(cfg Config) *Adapter {
	ttl := cfg.AffiliationTTL
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &Adapter{
		client: NewClient(cfg.BaseURL, cfg.Timeout, cfg.RequestsPerSecond),
		season: cfg.Season,
		cache:  cache.New(ttl, 2*ttl),
		ttl:    ttl,
	}
}

// Lookup finds players by name. Candidates are tried in order of
// precision: exact full name, exact last name, exact first name, then
// any full name containing the query. Accents and case are ignored, so
// "doncic" finds "Luka Dončić".
func (a *Adapter) Lookup(ctx context.Context, query string) ([]model.Entity, error) {
	q := foldName(query)
	if q == "" {
		return nil, nil
	}

	players, err := a.players(ctx)
	if err != nil {
		return nil, err
	}

	matchers := []func(p player) bool{
		func(p player) bool { return p.folded == q },
		func(p player) bool { return p.last == q },
		func(p player) bool { return p.first == q },
		func(p player) bool { return strings.Contains(p.folded, q) },
	}

	for _, match := range matchers {
		var found []model.Entity
		for _, p := range players {
			if match(p) {
				found = append(found, p.entity)
			}
		}
		if len(found) > 0 {
			return found, nil
		}
	}
	return nil, nil
}

// player is a directory entry with precomputed folded names.
type player struct {
	entity model.Entity
	folded string
	first  string
	last   string
}

func (a *Adapter) players(ctx context.Context) ([]player, error) {
	key := "players:" + a.season
	if cached, found := a.cache.Get(key); found {
		return cached.([]player), nil
	}

	params := url.Values{}
	params.Set("LeagueID", "00")
	params.Set("Season", a.season)
	params.Set("IsOnlyCurrentSeason", "1")

	resp, err := a.client.Get(ctx, "commonallplayers", params)
	if err != nil {
		return nil, fmt.Errorf("fetching player directory: %w", err)
	}
	set, err := resp.Set("CommonAllPlayers")
	if err != nil {
		return nil, err
	}

	var players []player
	for _, row := range set.Rows() {
		name := row.String("DISPLAY_FIRST_LAST")
		id := row.Int64("PERSON_ID")
		if id == 0 || name == "" {
			continue
		}

		folded := foldName(name)
		first, last, _ := strings.Cut(folded, " ")
		players = append(players, player{
			entity: model.Entity{ID: id, DisplayName: name},
			folded: folded,
			first:  first,
			last:   last,
		})
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].entity.ID < players[j].entity.ID
	})

	a.cache.Set(key, players, playersCacheTTL)
	return players, nil
}

// Schedule returns one row per game for every day in [from, to).
func (a *Adapter) Schedule(
	ctx context.Context,
	from, to time.Time,
) ([]model.FeedRow, error) {
	var rows []model.FeedRow
	for day := from; day.Before(to); day = day.AddDate(0, 0, 1) {
		params := url.Values{}
		params.Set("GameDate", day.Format(scoreboardDateLayout))
		params.Set("LeagueID", "00")
		params.Set("DayOffset", "0")

		resp, err := a.client.Get(ctx, "scoreboardv2", params)
		if err != nil {
			return nil, fmt.Errorf("fetching scoreboard for %s: %w", day.Format(scoreboardDateLayout), err)
		}
		set, err := resp.Set("GameHeader")
		if err != nil {
			return nil, err
		}

		for _, r := range set.Rows() {
			rows = append(rows, scoreboardRow(r))
		}
	}
	return rows, nil
}

func scoreboardRow(r Row) model.FeedRow {
	home := model.Participant{ID: r.Int64("HOME_TEAM_ID")}
	visitor := model.Participant{ID: r.Int64("VISITOR_TEAM_ID")}

	row := model.FeedRow{
		EventID:       r.String("GAME_ID"),
		ScheduledTime: r.String("GAME_DATE_EST"),
		Participants:  []model.Participant{home, visitor},
		Status:        model.EventScheduled,
	}
	if v, h, ok := parseGameCode(r.String("GAMECODE")); ok {
		row.Participants[0].Abbreviation = h
		row.Participants[1].Abbreviation = v
		row.Matchup = v + " @ " + h
	}
	if r.Int("GAME_STATUS_ID") == gameStatusFinal {
		row.Status = model.EventCompleted
	}
	return row
}

// GameLog returns the player's games in [from, to), most recent first.
// Participants[0] of each row is the player's own team; rows whose
// matchup cannot be parsed carry no participants.
func (a *Adapter) GameLog(
	ctx context.Context,
	entityID int64,
	from, to time.Time,
) ([]model.FeedRow, error) {
	params := url.Values{}
	params.Set("PlayerID", strconv.FormatInt(entityID, 10))
	params.Set("Season", a.season)
	params.Set("SeasonType", "Regular Season")
	params.Set("DateFrom", from.Format(paramDateLayout))
	params.Set("DateTo", to.Add(-time.Nanosecond).Format(paramDateLayout))

	resp, err := a.client.Get(ctx, "playergamelog", params)
	if err != nil {
		return nil, fmt.Errorf("fetching game log for %d: %w", entityID, err)
	}
	set, err := resp.Set("PlayerGameLog")
	if err != nil {
		return nil, err
	}

	var rows []model.FeedRow
	for _, r := range set.Rows() {
		rows = append(rows, gameLogRow(r))
	}
	return rows, nil
}

func gameLogRow(r Row) model.FeedRow {
	row := model.FeedRow{
		EventID:       r.String("Game_ID"),
		ScheduledTime: r.String("GAME_DATE"),
		Matchup:       r.String("MATCHUP"),
		Status:        model.EventCompleted,
		Result: &model.BoxScore{
			WinLoss:  r.String("WL"),
			Minutes:  r.String("MIN"),
			Points:   r.Int("PTS"),
			Rebounds: r.Int("REB"),
			Assists:  r.Int("AST"),
			Steals:   r.Int("STL"),
			Blocks:   r.Int("BLK"),
			FGM:      r.Int("FGM"),
			FGA:      r.Int("FGA"),
			FG3M:     r.Int("FG3M"),
			FG3A:     r.Int("FG3A"),
			FTM:      r.Int("FTM"),
			FTA:      r.Int("FTA"),
		},
	}
	if m, ok := ParseMatchup(row.Matchup); ok {
		row.Participants = []model.Participant{
			{Abbreviation: m.Team},
			{Abbreviation: m.Opponent},
		}
	}
	return row
}

// Affiliation returns the player's current team id. Answers are cached
// for the configured TTL; players without a team yield source.ErrNotFound
// and are not cached.
func (a *Adapter) Affiliation(ctx context.Context, entityID int64) (int64, error) {
	key := "team:" + strconv.FormatInt(entityID, 10)
	if cached, found := a.cache.Get(key); found {
		return cached.(int64), nil
	}

	params := url.Values{}
	params.Set("PlayerID", strconv.FormatInt(entityID, 10))

	resp, err := a.client.Get(ctx, "commonplayerinfo", params)
	if err != nil {
		return 0, fmt.Errorf("fetching player info for %d: %w", entityID, err)
	}
	set, err := resp.Set("CommonPlayerInfo")
	if err != nil {
		return 0, err
	}

	rows := set.Rows()
	if len(rows) == 0 {
		return 0, fmt.Errorf("player %d: %w", entityID, source.ErrNotFound)
	}
	teamID := rows[0].Int64("TEAM_ID")
	if teamID == 0 {
		return 0, fmt.Errorf("team of player %d: %w", entityID, source.ErrNotFound)
	}

	a.cache.Set(key, teamID, cache.DefaultExpiration)
	return teamID, nil
}

// foldName lowercases s, strips diacritics and collapses whitespace.
func foldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}
