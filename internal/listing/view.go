package listing

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"fieldservice-admin/internal/entities"
	"fieldservice-admin/pkg/clock"
)

var tracer = otel.Tracer("listing")

const DefaultDebounce = 400 * time.Millisecond

type Status string

const (
	StatusLoading Status = "loading"
	StatusError   Status = "error"
	StatusReady   Status = "ready"
)

// Snapshot — то, что отдаётся UI. Загрузка, ошибка и данные взаимоисключающие:
// пока запрос в полёте, записи не показываются.
type Snapshot struct {
	Entity     string   `json:"entity"`
	Generation uint64   `json:"generation"`
	State      State    `json:"state"`
	Status     Status   `json:"status"`
	Error      string   `json:"error,omitempty"`
	Records    []Record `json:"records,omitempty"`
}

type Option func(*View)

func WithClock(c clock.Clock) Option { return func(v *View) { v.clock = c } }

func WithDebounce(d time.Duration) Option {
	return func(v *View) {
		if d > 0 {
			v.debounce = d
		}
	}
}

func WithLogger(l *zap.Logger) Option { return func(v *View) { v.logger = l } }

// OnChange вызывается после каждого изменения видимого состояния.
func OnChange(fn func(Snapshot)) Option { return func(v *View) { v.onChange = fn } }

// View — список одной сущности для одного экрана. Коллекцией владеет только он.
type View struct {
	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	def      entities.Definition
	searcher Searcher
	clock    clock.Clock
	debounce time.Duration
	logger   *zap.Logger
	onChange func(Snapshot)

	state      State
	generation uint64
	status     Status
	err        error
	fetched    []Record
	sorted     []Record
	pending    clock.Timer
	querySeq   uint64
	inflight   context.CancelFunc
	closed     bool

	// built нумерует снимки под mu; notify отдаёт их строго по возрастанию
	built  uint64
	sendMu sync.Mutex
	sent   uint64
}

func NewView(ctx context.Context, def entities.Definition, searcher Searcher, opts ...Option) *View {
	ctx, cancel := context.WithCancel(ctx)
	v := &View{
		ctx:      ctx,
		cancel:   cancel,
		def:      def,
		searcher: searcher,
		clock:    clock.Real(),
		debounce: DefaultDebounce,
		logger:   zap.NewNop(),
		state:    NewState(def),
		status:   StatusReady,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Load — первичная загрузка при открытии экрана.
func (v *View) Load() {
	v.mu.Lock()
	snap, seq, start := v.fetchLocked()
	v.mu.Unlock()
	if start != nil {
		v.notify(snap, seq)
		start()
	}
}

// SetQuery меняет текст поиска; запрос уходит после паузы в наборе.
func (v *View) SetQuery(q string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.state.Query = q
	if v.pending != nil {
		v.pending.Stop()
	}
	v.querySeq++
	seq := v.querySeq
	v.pending = v.clock.AfterFunc(v.debounce, func() { v.flushQuery(seq) })
}

func (v *View) flushQuery(seq uint64) {
	v.mu.Lock()
	// таймер мог сработать одновременно с новым вводом или сменой фильтра
	if seq != v.querySeq || v.pending == nil {
		v.mu.Unlock()
		return
	}
	v.pending = nil
	snap, seq, start := v.fetchLocked()
	v.mu.Unlock()
	if start != nil {
		v.notify(snap, seq)
		start()
	}
}

// SetFilter меняет классификатор и сразу перезапрашивает список.
// Пустое значение снимает фильтр.
func (v *View) SetFilter(key, value string) error {
	if !v.def.IsClassifier(key) {
		return fmt.Errorf("фильтр %q для %s: %w", key, v.def.Name, ErrUnknownFilter)
	}

	v.mu.Lock()
	if value == "" {
		delete(v.state.Filters, key)
	} else {
		v.state.Filters[key] = value
	}
	// отложенный текст уходит этим же запросом
	if v.pending != nil {
		v.pending.Stop()
		v.pending = nil
	}
	snap, seq, start := v.fetchLocked()
	v.mu.Unlock()
	if start != nil {
		v.notify(snap, seq)
		start()
	}
	return nil
}

// SetSort только переупорядочивает уже полученные записи.
func (v *View) SetSort(key string) error {
	if !v.def.Schema.Has(key) {
		return fmt.Errorf("сортировка %q для %s: %w", key, v.def.Name, ErrUnknownSortKey)
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil
	}
	v.state.Toggle(key)
	v.resortLocked()
	snap, seq := v.emitLocked()
	v.mu.Unlock()

	v.notify(snap, seq)
	return nil
}

func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

// Close останавливает таймер и отменяет запрос в полёте; ответы после
// закрытия отбрасываются.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	if v.pending != nil {
		v.pending.Stop()
		v.pending = nil
	}
	v.generation++
	v.cancel()
}

// fetchLocked переводит список в загрузку и возвращает запуск запроса.
// Запуск вызывается после отправки снимка загрузки, чтобы ответ не обогнал его.
func (v *View) fetchLocked() (Snapshot, uint64, func()) {
	if v.closed {
		return Snapshot{}, 0, nil
	}
	if v.inflight != nil {
		v.inflight()
	}

	v.generation++
	gen := v.generation
	params := SearchParams(v.state)
	v.status = StatusLoading
	v.err = nil

	ctx, cancel := context.WithCancel(v.ctx)
	v.inflight = cancel

	start := func() {
		go v.fetch(ctx, cancel, gen, params)
	}
	snap, seq := v.emitLocked()
	return snap, seq, start
}

func (v *View) fetch(ctx context.Context, cancel context.CancelFunc, gen uint64, params url.Values) {
	defer cancel()
	ctx, span := tracer.Start(ctx, "View.fetch")
	span.SetAttributes(attribute.String("entity", v.def.Name), attribute.Int64("generation", int64(gen)))
	records, err := v.searcher.Search(ctx, v.def, params)
	if err != nil {
		span.RecordError(err)
	}
	span.End()
	v.commit(gen, records, err)
}

func (v *View) commit(gen uint64, records []Record, err error) {
	v.mu.Lock()
	if gen != v.generation {
		v.mu.Unlock()
		v.logger.Debug("Устаревший ответ поиска отброшен",
			zap.String("entity", v.def.Name),
			zap.Uint64("generation", gen),
		)
		return
	}

	v.inflight = nil
	if err != nil {
		v.status = StatusError
		v.err = err
		v.fetched = nil
		v.sorted = nil
		v.logger.Warn("Ошибка поиска", zap.String("entity", v.def.Name), zap.Error(err))
	} else {
		v.status = StatusReady
		v.fetched = records
		v.resortLocked()
	}
	snap, seq := v.emitLocked()
	v.mu.Unlock()

	v.notify(snap, seq)
}

func (v *View) resortLocked() {
	if v.fetched == nil {
		return
	}
	v.sorted = Sorted(v.fetched, v.def.Schema, v.def.FavoriteKey, v.state.SortKey, v.state.Direction)
}

func (v *View) snapshotLocked() Snapshot {
	snap := Snapshot{
		Entity:     v.def.Name,
		Generation: v.generation,
		State:      v.state.Clone(),
		Status:     v.status,
	}
	switch v.status {
	case StatusError:
		snap.Error = v.err.Error()
	case StatusReady:
		snap.Records = append([]Record{}, v.sorted...)
	}
	return snap
}

// emitLocked — снимок для отправки и его порядковый номер.
func (v *View) emitLocked() (Snapshot, uint64) {
	v.built++
	return v.snapshotLocked(), v.built
}

// notify отбрасывает снимок, если более новый уже отправлен: горутины
// ответа и ввода отпускают mu до отправки и могут обогнать друг друга.
func (v *View) notify(s Snapshot, seq uint64) {
	if v.onChange == nil {
		return
	}
	v.sendMu.Lock()
	defer v.sendMu.Unlock()
	if seq <= v.sent {
		return
	}
	v.sent = seq
	v.onChange(s)
}
