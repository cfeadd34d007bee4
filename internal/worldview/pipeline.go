package worldview

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is a stage of the render pipeline.
type State string

const (
	StateIdle            State = "idle"
	StateResolving       State = "resolving"
	StateFetchingWeather State = "fetching_weather"
	StateFetchingCulture State = "fetching_culture"
	StateRendered        State = "rendered"
	StateFailed          State = "failed"
)

// SupersedePolicy decides which completed run owns the display when runs overlap.
type SupersedePolicy string

const (
	// PolicyLastArrival applies every completed run; the last one to finish wins.
	PolicyLastArrival SupersedePolicy = "last-arrival"
	// PolicyLatestRequest applies a run only if no newer run has been issued.
	PolicyLatestRequest SupersedePolicy = "latest-request"
)

// driftLogKm is the distance above which a coordinate correction by the
// weather service is logged.
const driftLogKm = 1.0

// Options configures a Pipeline.
type Options struct {
	Policy      SupersedePolicy
	Language    Language
	History     History
	Preferences LanguageStore
}

// View is a consistent snapshot of the pipeline's application state.
type View struct {
	State    State       `json:"state"`
	Failure  FailureKind `json:"failure,omitempty"`
	Token    uint64      `json:"token"`
	Language Language    `json:"language"`
	Display  Display     `json:"display"`
	Map      MapState    `json:"map"`
}

// rendered keeps the raw inputs of the current display so it can be
// relabelled when the language changes.
type rendered struct {
	reading  WeatherReading
	profile  CountryProfile
	template CultureTemplate
}

// Pipeline orchestrates resolve -> weather -> culture -> render and owns the
// application state (language, display, map, current location).
type Pipeline struct {
	resolver *Resolver
	fetcher  *Fetcher
	enricher *Enricher
	history  History
	prefs    LanguageStore
	policy   SupersedePolicy
	now      func() time.Time

	mu       sync.Mutex
	latest   uint64
	state    State
	failure  FailureKind
	language Language
	display  Display
	mapState MapState
	current  *rendered
}

// NewPipeline creates a Pipeline in the Idle state.
func NewPipeline(resolver *Resolver, fetcher *Fetcher, enricher *Enricher, opts Options) *Pipeline {
	lang := opts.Language
	if !lang.Supported() {
		lang = LangEnglish
	}
	policy := opts.Policy
	if policy != PolicyLatestRequest {
		policy = PolicyLastArrival
	}
	return &Pipeline{
		resolver: resolver,
		fetcher:  fetcher,
		enricher: enricher,
		history:  opts.History,
		prefs:    opts.Preferences,
		policy:   policy,
		now:      time.Now,
		state:    StateIdle,
		language: lang,
		display:  Display{Language: lang},
		mapState: InitialMapState(),
	}
}

// Search runs the pipeline for a typed city name.
func (p *Pipeline) Search(ctx context.Context, city string) (Display, error) {
	return p.run(ctx, "search", func(ctx context.Context) (Location, error) {
		return p.resolver.ResolveByName(ctx, city)
	})
}

// Click runs the pipeline for a map click at lat/lon.
func (p *Pipeline) Click(ctx context.Context, lat, lon float64) (Display, error) {
	return p.run(ctx, "click", func(ctx context.Context) (Location, error) {
		return p.resolver.ResolveByCoords(ctx, lat, lon)
	})
}

// Locate runs the pipeline for the host's device position.
func (p *Pipeline) Locate(ctx context.Context) (Display, error) {
	return p.run(ctx, "device", func(ctx context.Context) (Location, error) {
		return p.resolver.ResolveByDevice(ctx)
	})
}

// LocateWith runs the pipeline for a position reported by device.
func (p *Pipeline) LocateWith(ctx context.Context, device DeviceLocator) (Display, error) {
	return p.run(ctx, "device", func(ctx context.Context) (Location, error) {
		return p.resolver.ResolveByDeviceWith(ctx, device)
	})
}

// Refresh re-renders the currently displayed location. It reports false when
// nothing has been rendered yet.
func (p *Pipeline) Refresh(ctx context.Context) (Display, bool, error) {
	p.mu.Lock()
	cur := p.current
	p.mu.Unlock()
	if cur == nil {
		return Display{}, false, nil
	}

	loc := cur.reading.Location
	d, err := p.run(ctx, "refresh", func(context.Context) (Location, error) {
		return loc, nil
	})
	return d, true, err
}

// SetLanguage switches the display language, persists it and relabels the
// current display.
func (p *Pipeline) SetLanguage(ctx context.Context, lang Language) error {
	if !lang.Supported() {
		return fmt.Errorf("%w: unsupported language %q", ErrInvalidInput, lang)
	}

	p.mu.Lock()
	p.language = lang
	switch {
	case p.display.Failed():
		p.display.Error = LabelsFor(lang).Error
		p.display.Language = lang
	case p.current != nil:
		d := p.buildDisplay(p.display.Token, p.display.RunID, *p.current)
		d.RenderedAt = p.display.RenderedAt
		p.display = d
	default:
		p.display.Language = lang
	}
	p.mu.Unlock()

	if p.prefs == nil {
		return nil
	}
	return p.prefs.SaveLanguage(ctx, lang)
}

// Language returns the active display language.
func (p *Pipeline) Language() Language {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.language
}

// State returns the current stage.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Snapshot returns the application state.
func (p *Pipeline) Snapshot() View {
	p.mu.Lock()
	defer p.mu.Unlock()

	v := View{
		State:    p.state,
		Failure:  p.failure,
		Token:    p.latest,
		Language: p.language,
		Display:  p.display,
		Map:      p.mapState,
	}
	if p.mapState.Marker != nil {
		m := *p.mapState.Marker
		v.Map.Marker = &m
	}
	return v
}

// History returns the recorded cities, most recent first.
func (p *Pipeline) History() []string {
	if p.history == nil {
		return nil
	}
	return p.history.List()
}

func (p *Pipeline) run(ctx context.Context, action string, resolve func(context.Context) (Location, error)) (Display, error) {
	token, runID := p.begin()
	log.Printf("DEBUG: pipeline run %d (%s) started: %s", token, runID, action)

	loc, err := resolve(ctx)
	if err != nil {
		return p.fail(token, runID, StateResolving, err)
	}

	p.advance(token, StateFetchingWeather)
	reading, err := p.fetcher.FetchFor(ctx, loc)
	if err != nil {
		return p.fail(token, runID, StateFetchingWeather, err)
	}
	if drift := loc.DistanceKm(reading.Location); drift > driftLogKm {
		log.Printf("DEBUG: pipeline run %d: weather service moved %s by %.1f km", token, loc.CityName, drift)
	}

	p.advance(token, StateFetchingCulture)
	profile, err := p.enricher.Enrich(ctx, reading.CountryCode)
	if err != nil {
		return p.fail(token, runID, StateFetchingCulture, err)
	}

	return p.render(token, runID, rendered{
		reading:  reading,
		profile:  profile,
		template: p.enricher.LookupTemplate(reading.CountryCode),
	})
}

func (p *Pipeline) begin() (uint64, string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.latest++
	p.state = StateResolving
	p.failure = ""
	return p.latest, uuid.NewString()
}

func (p *Pipeline) advance(token uint64, s State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if token == p.latest {
		p.state = s
	}
}

// accepts reports whether a run with token may overwrite the display.
// Callers hold p.mu.
func (p *Pipeline) accepts(token uint64) bool {
	return p.policy == PolicyLastArrival || token == p.latest
}

func (p *Pipeline) fail(token uint64, runID string, stage State, err error) (Display, error) {
	kind := KindOf(err)

	p.mu.Lock()
	d := Display{
		Token:      token,
		RunID:      runID,
		Language:   p.language,
		Error:      LabelsFor(p.language).Error,
		RenderedAt: p.now().UTC(),
	}
	applied := p.accepts(token)
	if applied {
		p.display = d
		p.state = StateFailed
		p.failure = kind
	}
	p.mu.Unlock()

	if applied {
		log.Printf("ERROR: pipeline run %d failed while %s (%s): %v", token, stage, kind, err)
	} else {
		log.Printf("DEBUG: pipeline run %d failed while %s after being superseded; discarded: %v", token, stage, err)
	}
	return d, err
}

func (p *Pipeline) render(token uint64, runID string, r rendered) (Display, error) {
	city := r.reading.Location.CityName

	p.mu.Lock()
	d := p.buildDisplay(token, runID, r)
	d.RenderedAt = p.now().UTC()
	applied := p.accepts(token)
	if applied {
		p.display = d
		p.state = StateRendered
		p.failure = ""
		p.current = &r
		p.mapState.Focus(r.reading.Location.Latitude, r.reading.Location.Longitude)
		if p.history != nil {
			p.history.Record(city)
		}
	}
	p.mu.Unlock()

	if !applied {
		log.Printf("DEBUG: pipeline run %d for %s superseded by run %d; result discarded", token, city, p.latestToken())
		return d, nil
	}

	log.Printf("INFO: pipeline run %d rendered %s (%s)", token, city, r.reading.CountryCode)
	if p.history != nil {
		// History persistence failures do not fail the render.
		if err := p.history.Save(context.Background()); err != nil {
			log.Printf("ERROR: saving history: %v", err)
		}
	}
	return d, nil
}

func (p *Pipeline) latestToken() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest
}

// buildDisplay localizes r with the active language. Callers hold p.mu.
func (p *Pipeline) buildDisplay(token uint64, runID string, r rendered) Display {
	lb := LabelsFor(p.language)
	city := r.reading.Location.CityName

	languages := make([]string, len(r.profile.Languages))
	copy(languages, r.profile.Languages)

	return Display{
		Token:    token,
		RunID:    runID,
		Language: p.language,
		Weather: &WeatherPanel{
			Title:        lb.WeatherTitleFor(city),
			City:         city,
			TemperatureC: r.reading.TemperatureC,
			Description:  r.reading.Description,
			IconID:       r.reading.IconID,
			IconURL:      IconURL(r.reading.IconID),
			CountryCode:  r.reading.CountryCode,
		},
		Culture: &CulturePanel{
			Title:          lb.CultureTitle,
			Country:        r.profile.CommonName,
			FlagURL:        r.profile.FlagURL,
			LanguagesLabel: lb.LanguagesLabel,
			Languages:      languages,
			FoodLabel:      lb.FoodLabel,
			Food:           r.template.Food,
			GreetingLabel:  lb.GreetingLabel,
			Greeting:       r.template.Greeting,
			EtiquetteLabel: lb.EtiquetteLabel,
			Etiquette:      r.template.Etiquette,
		},
	}
}

// IconURL returns the OpenWeatherMap icon image for id.
func IconURL(id string) string {
	if id == "" {
		return ""
	}
	return fmt.Sprintf("https://openweathermap.org/img/wn/%s@2x.png", id)
}
