// Package roulette implements the multiplayer Russian Roulette wagering engine.
//
// A session moves from lobby to in-progress to resolved. Every transition runs
// with the session's mutex held: joins, shots, decisions, timer expiries and
// settlement for one session are strictly sequential, while separate sessions
// proceed independently and share only the Ledger.
package roulette

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"telegram-roulette-bot/internal/game"
	"telegram-roulette-bot/internal/model"
)

// Limits and defaults.
const (
	MinBullets           = 1
	MaxBullets           = ChamberSize - 1
	MaxPlayers           = 6
	DefaultLobbyTimeout  = 60 * time.Second
	DefaultTurnTimeout   = 60 * time.Second
	timerCallbackTimeout = 10 * time.Second
)

// Ledger is the balance store the engine settles against. Debit must be atomic
// per user and fail with ErrInsufficientBalance, changing nothing, when the
// balance does not cover the amount.
type Ledger interface {
	Balance(ctx context.Context, userID int64) (decimal.Decimal, error)
	Debit(ctx context.Context, userID int64, amount decimal.Decimal, txType string) error
	Credit(ctx context.Context, userID int64, amount decimal.Decimal, txType string) error
}

// StatsRecorder counts per-player game statistics.
type StatsRecorder interface {
	Increment(ctx context.Context, userID int64, key string, delta int64) error
}

// Config holds engine tunables.
type Config struct {
	LobbyTimeout      time.Duration
	TurnTimeout       time.Duration
	MaxBet            decimal.Decimal // zero means unlimited
	DefaultMaxPlayers int
}

// Engine drives roulette sessions: creation, joins, turn resolution,
// decisions, timeouts and settlement.
type Engine struct {
	ledger   Ledger
	registry *Registry
	sampler  Sampler
	clock    quartz.Clock
	notifier Notifier
	stats    StatsRecorder
	newID    func() string
	cfg      Config
}

// Option configures an Engine.
type Option func(*Engine)

// WithSampler replaces the default shuffle sampler.
func WithSampler(s Sampler) Option { return func(e *Engine) { e.sampler = s } }

// WithClock sets the clock used for lobby and decision timeouts.
func WithClock(c quartz.Clock) Option { return func(e *Engine) { e.clock = c } }

// WithNotifier sets the receiver of every report.
func WithNotifier(n Notifier) Option { return func(e *Engine) { e.notifier = n } }

// WithStats enables per-player statistics.
func WithStats(s StatsRecorder) Option { return func(e *Engine) { e.stats = s } }

// WithRegistry shares a registry between engines.
func WithRegistry(r *Registry) Option { return func(e *Engine) { e.registry = r } }

// WithIDGenerator overrides session id generation.
func WithIDGenerator(f func() string) Option { return func(e *Engine) { e.newID = f } }

// NewEngine creates an engine settling against ledger.
func NewEngine(ledger Ledger, cfg Config, opts ...Option) *Engine {
	if cfg.LobbyTimeout <= 0 {
		cfg.LobbyTimeout = DefaultLobbyTimeout
	}
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = DefaultTurnTimeout
	}
	if cfg.DefaultMaxPlayers < 1 || cfg.DefaultMaxPlayers > MaxPlayers {
		cfg.DefaultMaxPlayers = MaxPlayers
	}

	e := &Engine{
		ledger:   ledger,
		registry: NewRegistry(),
		sampler:  NewShuffleSampler(game.NewRand()),
		clock:    quartz.NewReal(),
		notifier: discardNotifier{},
		newID:    uuid.NewString,
		cfg:      cfg,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the engine's session registry.
func (e *Engine) Registry() *Registry { return e.registry }

// CreateRequest describes a new game.
type CreateRequest struct {
	ChannelID  int64
	HostID     int64
	HostName   string
	Bullets    int
	Bet        decimal.Decimal
	MaxPlayers int // zero selects the configured default
}

// Validate checks the request parameters and fills defaults.
func (e *Engine) Validate(req *CreateRequest) error {
	if req.MaxPlayers == 0 {
		req.MaxPlayers = e.cfg.DefaultMaxPlayers
	}
	switch {
	case req.HostID == 0:
		return fmt.Errorf("%w: missing host", ErrInvalidParameters)
	case req.Bullets < MinBullets || req.Bullets > MaxBullets:
		return fmt.Errorf("%w: bullets must be between %d and %d", ErrInvalidParameters, MinBullets, MaxBullets)
	case req.MaxPlayers < 1 || req.MaxPlayers > MaxPlayers:
		return fmt.Errorf("%w: players must be between 1 and %d", ErrInvalidParameters, MaxPlayers)
	case req.Bet.IsNegative():
		return fmt.Errorf("%w: bet must not be negative", ErrInvalidParameters)
	case e.cfg.MaxBet.IsPositive() && req.Bet.GreaterThan(e.cfg.MaxBet):
		return fmt.Errorf("%w: bet must not exceed %s", ErrInvalidParameters, e.cfg.MaxBet)
	}
	return nil
}

// CreateGame opens a session in the request's channel and takes the host's
// stake. A single-player game starts immediately; otherwise the lobby stays
// open until it fills, the host starts it, or the lobby timeout starts it.
func (e *Engine) CreateGame(ctx context.Context, req CreateRequest) (*Report, error) {
	if err := e.Validate(&req); err != nil {
		return nil, err
	}

	s := newSession(e.newID(), req.ChannelID, req.HostID, req.HostName, req.Bullets, req.Bet, req.MaxPlayers, e.clock.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := e.registry.Register(s); err != nil {
		return nil, err
	}
	if err := e.ledger.Debit(ctx, req.HostID, req.Bet, model.TxTypeRouletteBet); err != nil {
		s.phase = PhaseResolved
		s.closed.Store(true)
		e.registry.Release(s.id)
		return nil, e.ledgerError(err, s, req.HostID, "debit host stake")
	}
	e.record(ctx, req.HostID, model.StatRouletteGames)

	host, _ := s.Player(req.HostID)
	rep := &Report{}
	rep.add(EventCreated, host, req.Bet)

	log.Info().
		Str("session_id", s.id).
		Int64("channel_id", s.channelID).
		Int64("host_id", req.HostID).
		Int("bullets", req.Bullets).
		Str("bet", req.Bet.String()).
		Int("max_players", req.MaxPlayers).
		Msg("Roulette game created")

	if s.maxPlayers == 1 {
		e.start(ctx, s, rep)
	} else {
		s.lobbyTimer = e.clock.AfterFunc(e.cfg.LobbyTimeout, func() { e.onLobbyTimeout(s) }, "roulette", "lobby")
	}
	return e.emit(ctx, s, rep), nil
}

// Join adds a player to a lobby and takes their stake. The join that fills the
// roster starts the game.
func (e *Engine) Join(ctx context.Context, sessionID string, playerID int64, name string) (*Report, error) {
	if playerID == 0 {
		return nil, fmt.Errorf("%w: missing player", ErrInvalidParameters)
	}
	s, err := e.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	switch {
	case s.phase != PhaseLobby:
		return nil, ErrGameAlreadyStarted
	case hasPlayer(s, playerID):
		return nil, ErrDuplicateJoin
	case s.Full():
		return nil, ErrGameFull
	}

	if err := e.registry.Claim(playerID, s.id); err != nil {
		return nil, err
	}
	if err := e.ledger.Debit(ctx, playerID, s.bet, model.TxTypeRouletteBet); err != nil {
		e.registry.Unclaim(playerID, s.id)
		return nil, e.ledgerError(err, s, playerID, "debit player stake")
	}
	s.AddPlayer(playerID, name)
	e.record(ctx, playerID, model.StatRouletteGames)

	p, _ := s.Player(playerID)
	rep := &Report{}
	rep.add(EventJoined, p, s.bet)

	if s.Full() {
		e.start(ctx, s, rep)
	}
	return e.emit(ctx, s, rep), nil
}

// Start begins a lobby on the host's request.
func (e *Engine) Start(ctx context.Context, sessionID string, requesterID int64) (*Report, error) {
	s, err := e.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	if requesterID != s.hostID {
		return nil, ErrNotHost
	}
	if s.phase != PhaseLobby {
		return nil, ErrGameAlreadyStarted
	}

	rep := &Report{}
	e.start(ctx, s, rep)
	return e.emit(ctx, s, rep), nil
}

// Continue answers the pending prompt with "keep playing". turn must be the
// prompt number the player was shown.
func (e *Engine) Continue(ctx context.Context, sessionID string, requesterID int64, turn int) (*Report, error) {
	s, err := e.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	if err := checkDecision(s, requesterID, turn); err != nil {
		return nil, err
	}
	e.clearDecision(s)

	rep := &Report{}
	e.run(ctx, s, rep)
	return e.emit(ctx, s, rep), nil
}

// CashOut answers the pending prompt with "take my stake". The last player
// standing in a multiplayer game collects the pot as well.
func (e *Engine) CashOut(ctx context.Context, sessionID string, requesterID int64, turn int) (*Report, error) {
	s, err := e.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	if err := checkDecision(s, requesterID, turn); err != nil {
		return nil, err
	}

	rep := &Report{}
	if err := e.cashOut(ctx, s, requesterID, rep); err != nil {
		return nil, err
	}
	return e.emit(ctx, s, rep), nil
}

// Cancel closes a lobby on the host's request and refunds every stake.
func (e *Engine) Cancel(ctx context.Context, channelID, requesterID int64) (*Report, error) {
	s, ok := e.registry.ByChannel(channelID)
	if !ok {
		return nil, ErrGameNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Closed() {
		return nil, ErrGameNotFound
	}
	if requesterID != s.hostID {
		return nil, ErrNotHost
	}
	if s.phase != PhaseLobby {
		return nil, ErrGameAlreadyStarted
	}
	return e.abandon(ctx, s)
}

// Abandon tears down the channel's game in any phase, refunding the current
// stake of every player still alive. The pot is forfeited.
func (e *Engine) Abandon(ctx context.Context, channelID int64) (*Report, error) {
	s, ok := e.registry.ByChannel(channelID)
	if !ok {
		return nil, ErrGameNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Closed() {
		return nil, ErrGameNotFound
	}
	return e.abandon(ctx, s)
}

// ChannelView returns a snapshot of the channel's live game.
func (e *Engine) ChannelView(channelID int64) (View, bool) {
	s, ok := e.registry.ByChannel(channelID)
	if !ok {
		return View{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Closed() {
		return View{}, false
	}
	return s.View(), true
}

// acquire returns the live session locked.
func (e *Engine) acquire(sessionID string) (*Session, error) {
	s, ok := e.registry.Get(sessionID)
	if !ok {
		return nil, ErrGameNotFound
	}
	s.mu.Lock()
	if s.Closed() {
		s.mu.Unlock()
		return nil, ErrGameNotFound
	}
	return s, nil
}

func hasPlayer(s *Session, id int64) bool {
	_, ok := s.players[id]
	return ok
}

func checkDecision(s *Session, requesterID int64, turn int) error {
	if s.phase != PhaseInProgress || s.awaiting == 0 {
		return ErrNotYourTurn
	}
	if s.awaiting != requesterID || s.turn != turn {
		return ErrNotYourTurn
	}
	return nil
}

func (e *Engine) start(ctx context.Context, s *Session, rep *Report) {
	if s.lobbyTimer != nil {
		s.lobbyTimer.Stop()
		s.lobbyTimer = nil
	}
	s.phase = PhaseInProgress
	rep.add(EventStarted, nil, decimal.Zero)

	log.Info().
		Str("session_id", s.id).
		Int("players", len(s.order)).
		Msg("Roulette game started")

	e.run(ctx, s, rep)
}

// run resolves shots until a human decision is needed or the game ends.
// Eliminations need no input, so a chain of them is handled in one call.
func (e *Engine) run(ctx context.Context, s *Session, rep *Report) {
	for {
		alive := s.AliveIDs()
		if len(alive) == 0 {
			e.finish(ctx, s, rep, nil, decimal.Zero)
			return
		}

		// A lobby started with only the host plays like a solo game; last
		// standing needs someone to have been shot.
		if len(alive) == 1 && s.maxPlayers > 1 && !s.lastStanding && s.hasEliminations() {
			s.lastStanding = true
			p := s.players[alive[0]]
			rep.add(EventLastStanding, p, s.pot.Add(p.Stake))
			e.awaitDecision(s, rep, p)
			return
		}

		id, ok := s.CurrentPlayer()
		if !ok {
			e.finish(ctx, s, rep, nil, decimal.Zero)
			return
		}
		p := s.players[id]

		if e.sampler.Fire(s.bullets, s.chamber) {
			lost := p.Stake
			s.Eliminate(id)
			s.bullets--
			rep.add(EventFired, p, lost)
			e.record(ctx, id, model.StatRouletteEliminated)
			continue
		}

		s.RecordSurvival(id)
		rep.add(EventSurvived, p, p.Stake)
		rep.Events[len(rep.Events)-1].Multiplier = s.MultiplierFor(p.RoundsSurvived)
		e.record(ctx, id, model.StatRouletteSurvived)

		if s.reload() {
			rep.add(EventReloaded, nil, decimal.Zero)
			rep.Events[len(rep.Events)-1].Round = s.round
		}
		if len(alive) > 1 {
			s.AdvanceTurn()
		}
		e.awaitDecision(s, rep, p)
		return
	}
}

func (e *Engine) awaitDecision(s *Session, rep *Report, p *Player) {
	e.clearDecision(s)
	s.awaiting = p.ID
	s.turn++
	turn := s.turn
	s.turnTimer = e.clock.AfterFunc(e.cfg.TurnTimeout, func() { e.onTurnTimeout(s, turn) }, "roulette", "turn")
	rep.add(EventAwaitingDecision, p, p.Stake)
}

func (e *Engine) clearDecision(s *Session) {
	s.awaiting = 0
	if s.turnTimer != nil {
		s.turnTimer.Stop()
		s.turnTimer = nil
	}
}

// cashOut pays before it mutates: if the ledger fails the session is left as
// it was and the decision stays pending.
func (e *Engine) cashOut(ctx context.Context, s *Session, id int64, rep *Report) error {
	p := s.players[id]
	alive := s.AliveIDs()

	if len(alive) == 1 && s.lastStanding {
		return e.settleWinner(ctx, s, rep, p)
	}

	stake := p.Stake
	payouts := []payout{{playerID: id, amount: stake, txType: model.TxTypeRouletteCashOut}}

	var winner *Player
	var prize decimal.Decimal
	remaining := len(alive) - 1
	if remaining == 1 && s.maxPlayers > 1 {
		for _, a := range alive {
			if a != id {
				winner = s.players[a]
			}
		}
		prize = s.pot.Add(winner.Stake)
		payouts = append(payouts, payout{playerID: winner.ID, amount: prize, txType: model.TxTypeRouletteWin})
	}

	if err := e.pay(ctx, s, payouts); err != nil {
		return err
	}

	e.clearDecision(s)
	s.CashOut(id)
	rep.add(EventCashedOut, p, stake)
	e.record(ctx, id, model.StatRouletteCashOuts)

	switch {
	case remaining == 0:
		e.finish(ctx, s, rep, nil, decimal.Zero)
	case winner != nil:
		e.finish(ctx, s, rep, winner, prize)
	default:
		e.run(ctx, s, rep)
	}
	return nil
}

func (e *Engine) onLobbyTimeout(s *Session) {
	ctx, cancel := context.WithTimeout(context.Background(), timerCallbackTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Closed() || s.phase != PhaseLobby {
		return
	}
	s.lobbyTimer = nil

	log.Info().Str("session_id", s.id).Msg("Roulette lobby timed out, starting")

	rep := &Report{}
	rep.add(EventTimedOut, nil, decimal.Zero)
	e.start(ctx, s, rep)
	e.emit(ctx, s, rep)
}

// onTurnTimeout cashes out a player who let their prompt expire.
func (e *Engine) onTurnTimeout(s *Session, turn int) {
	ctx, cancel := context.WithTimeout(context.Background(), timerCallbackTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Closed() || s.phase != PhaseInProgress || s.awaiting == 0 || s.turn != turn {
		return
	}
	s.turnTimer = nil
	p := s.players[s.awaiting]

	log.Info().Str("session_id", s.id).Int64("player_id", p.ID).Msg("Roulette decision timed out, cashing out")

	rep := &Report{}
	rep.add(EventTimedOut, p, decimal.Zero)
	if err := e.cashOut(ctx, s, p.ID, rep); err != nil {
		log.Error().Err(err).Str("session_id", s.id).Msg("Automatic cash-out failed, retrying later")
		s.turnTimer = e.clock.AfterFunc(e.cfg.TurnTimeout, func() { e.onTurnTimeout(s, turn) }, "roulette", "turn")
		return
	}
	e.emit(ctx, s, rep)
}

func (e *Engine) emit(ctx context.Context, s *Session, rep *Report) *Report {
	rep.Session = s.View()
	e.notifier.Notify(ctx, rep)
	return rep
}

func (e *Engine) record(ctx context.Context, userID int64, key string) {
	if e.stats == nil {
		return
	}
	if err := e.stats.Increment(ctx, userID, key, 1); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Str("key", key).Msg("Failed to record roulette statistic")
	}
}

func (e *Engine) ledgerError(err error, s *Session, userID int64, op string) error {
	if errors.Is(err, ErrInsufficientBalance) {
		return ErrInsufficientBalance
	}
	log.Error().Err(err).Str("session_id", s.id).Int64("user_id", userID).Msg("Roulette ledger operation failed")
	return fmt.Errorf("roulette: %s: %w", op, err)
}
