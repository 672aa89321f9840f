package roulette

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/quartz"
	"github.com/shopspring/decimal"

	"telegram-roulette-bot/internal/pkg/money"
)

// Phase is the lifecycle state of a session.
type Phase int

const (
	PhaseLobby Phase = iota
	PhaseInProgress
	PhaseResolved
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseInProgress:
		return "in_progress"
	case PhaseResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Player is one participant of a session. Players are never removed from a
// session; elimination and cash-out only clear Alive.
type Player struct {
	ID             int64
	Name           string
	Alive          bool
	CashedOut      bool
	RoundsSurvived int
	Stake          decimal.Decimal
}

// Session is the state of one roulette game. All fields are guarded by mu,
// which the Engine holds for the whole of every transition.
type Session struct {
	mu sync.Mutex

	id         string
	channelID  int64
	hostID     int64
	hostName   string
	createdAt  time.Time
	chamber    int
	initial    int
	bullets    int
	bet        decimal.Decimal
	maxPlayers int

	players map[int64]*Player
	order   []int64

	pot          decimal.Decimal
	round        int
	turnIndex    int
	phase        Phase
	lastStanding bool

	// awaiting is the player asked to continue or cash out; zero when no
	// decision is pending. turn numbers the prompts so a stale button press
	// can be told apart from a fresh one.
	awaiting int64
	turn     int

	lobbyTimer *quartz.Timer
	turnTimer  *quartz.Timer

	// closed mirrors phase == PhaseResolved for readers that must not take mu.
	closed atomic.Bool
}

func newSession(id string, channelID, hostID int64, hostName string, bullets int, bet decimal.Decimal, maxPlayers int, now time.Time) *Session {
	s := &Session{
		id:         id,
		channelID:  channelID,
		hostID:     hostID,
		hostName:   hostName,
		createdAt:  now,
		chamber:    ChamberSize,
		initial:    bullets,
		bullets:    bullets,
		bet:        bet,
		maxPlayers: maxPlayers,
		players:    make(map[int64]*Player),
		pot:        decimal.Zero,
		phase:      PhaseLobby,
	}
	s.AddPlayer(hostID, hostName)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// ChannelID returns the chat the session runs in.
func (s *Session) ChannelID() int64 { return s.channelID }

// Closed reports whether the session has been resolved. Safe without the lock.
func (s *Session) Closed() bool { return s.closed.Load() }

// AddPlayer appends a player with a stake equal to the bet. It returns false
// and changes nothing if the session is not in the lobby, is full, or already
// has the player.
func (s *Session) AddPlayer(id int64, name string) bool {
	if s.phase != PhaseLobby || len(s.order) >= s.maxPlayers {
		return false
	}
	if _, ok := s.players[id]; ok {
		return false
	}
	s.players[id] = &Player{ID: id, Name: name, Alive: true, Stake: s.bet}
	s.order = append(s.order, id)
	return true
}

// Player returns the player with the given id.
func (s *Session) Player(id int64) (*Player, bool) {
	p, ok := s.players[id]
	return p, ok
}

// Full reports whether the roster is at capacity.
func (s *Session) Full() bool {
	return len(s.order) >= s.maxPlayers
}

// AliveIDs returns the alive players in join order.
func (s *Session) AliveIDs() []int64 {
	alive := make([]int64, 0, len(s.order))
	for _, id := range s.order {
		if s.players[id].Alive {
			alive = append(alive, id)
		}
	}
	return alive
}

// CurrentPlayer returns the alive player whose turn it is.
func (s *Session) CurrentPlayer() (int64, bool) {
	alive := s.AliveIDs()
	if len(alive) == 0 {
		return 0, false
	}
	return alive[s.turnIndex%len(alive)], true
}

// AdvanceTurn passes the turn to the next alive player in join order.
func (s *Session) AdvanceTurn() {
	if n := len(s.AliveIDs()); n > 0 {
		s.turnIndex = (s.turnIndex + 1) % n
	}
}

// MultiplierFor is the display multiplier after the given number of survived
// rounds: 1.3^initialBullets * 1.3^rounds.
func (s *Session) MultiplierFor(rounds int) float64 {
	return math.Pow(1.3, float64(s.initial)) * math.Pow(1.3, float64(rounds))
}

// StakeFor is the exact stake of a player who has survived the given number of
// rounds: bet * 1.3^(initialBullets+rounds).
func (s *Session) StakeFor(rounds int) decimal.Decimal {
	return s.bet.Mul(money.Growth(s.initial + rounds))
}

// Eliminate marks the player dead and moves their stake into the pot.
func (s *Session) Eliminate(id int64) {
	p, ok := s.players[id]
	if !ok || !p.Alive {
		return
	}
	s.removeAlive(id)
	s.pot = s.pot.Add(p.Stake)
}

// RecordSurvival credits an alive player with one more survived round.
func (s *Session) RecordSurvival(id int64) {
	p, ok := s.players[id]
	if !ok || !p.Alive {
		return
	}
	p.RoundsSurvived++
	p.Stake = s.StakeFor(p.RoundsSurvived)
}

// CashOut withdraws an alive player and returns their stake. The stake leaves
// the session with the player and never enters the pot.
func (s *Session) CashOut(id int64) decimal.Decimal {
	p, ok := s.players[id]
	if !ok || !p.Alive {
		return decimal.Zero
	}
	s.removeAlive(id)
	p.CashedOut = true
	return p.Stake
}

// removeAlive clears Alive and keeps turnIndex pointing at the same next
// player: removing someone before the cursor shifts it back by one, removing
// the player under the cursor leaves it on their successor.
func (s *Session) removeAlive(id int64) {
	alive := s.AliveIDs()
	pos := -1
	for i, a := range alive {
		if a == id {
			pos = i
			break
		}
	}
	if pos < 0 {
		return
	}

	cur := s.turnIndex % len(alive)
	s.players[id].Alive = false

	if pos < cur {
		cur--
	}
	if remaining := len(alive) - 1; remaining > 0 {
		s.turnIndex = cur % remaining
	} else {
		s.turnIndex = 0
	}
}

// reload refills the cylinder once every bullet has been used.
func (s *Session) reload() bool {
	if s.bullets > 0 {
		return false
	}
	s.bullets = s.initial
	s.round++
	return true
}

// hasEliminations reports whether any player has been shot.
func (s *Session) hasEliminations() bool {
	for _, id := range s.order {
		if p := s.players[id]; !p.Alive && !p.CashedOut {
			return true
		}
	}
	return false
}

// committed is the stake still held by alive players plus the pot.
func (s *Session) committed() decimal.Decimal {
	total := s.pot
	for _, id := range s.order {
		if p := s.players[id]; p.Alive {
			total = total.Add(p.Stake)
		}
	}
	return total
}

func (s *Session) stopTimers() {
	if s.lobbyTimer != nil {
		s.lobbyTimer.Stop()
		s.lobbyTimer = nil
	}
	if s.turnTimer != nil {
		s.turnTimer.Stop()
		s.turnTimer = nil
	}
}

// PlayerView is a read-only copy of a Player.
type PlayerView struct {
	ID             int64
	Name           string
	Alive          bool
	CashedOut      bool
	RoundsSurvived int
	Stake          decimal.Decimal
}

// View is a consistent read-only snapshot of a session.
type View struct {
	ID               string
	ChannelID        int64
	HostID           int64
	HostName         string
	Phase            Phase
	Bet              decimal.Decimal
	InitialBullets   int
	BulletsRemaining int
	ChamberSize      int
	MaxPlayers       int
	Round            int
	Pot              decimal.Decimal
	Players          []PlayerView
	Current          int64
	Awaiting         int64
	Turn             int
	LastStanding     bool
}

// AliveCount returns how many players in the view are alive.
func (v View) AliveCount() int {
	n := 0
	for _, p := range v.Players {
		if p.Alive {
			n++
		}
	}
	return n
}

// Player returns the view of one player.
func (v View) Player(id int64) (PlayerView, bool) {
	for _, p := range v.Players {
		if p.ID == id {
			return p, true
		}
	}
	return PlayerView{}, false
}

// View snapshots the session. Callers must hold the session lock.
func (s *Session) View() View {
	v := View{
		ID:               s.id,
		ChannelID:        s.channelID,
		HostID:           s.hostID,
		HostName:         s.hostName,
		Phase:            s.phase,
		Bet:              s.bet,
		InitialBullets:   s.initial,
		BulletsRemaining: s.bullets,
		ChamberSize:      s.chamber,
		MaxPlayers:       s.maxPlayers,
		Round:            s.round,
		Pot:              s.pot,
		Awaiting:         s.awaiting,
		Turn:             s.turn,
		LastStanding:     s.lastStanding,
		Players:          make([]PlayerView, 0, len(s.order)),
	}
	if cur, ok := s.CurrentPlayer(); ok && s.phase == PhaseInProgress {
		v.Current = cur
	}
	for _, id := range s.order {
		p := s.players[id]
		v.Players = append(v.Players, PlayerView{
			ID:             p.ID,
			Name:           p.Name,
			Alive:          p.Alive,
			CashedOut:      p.CashedOut,
			RoundsSurvived: p.RoundsSurvived,
			Stake:          p.Stake,
		})
	}
	return v
}
