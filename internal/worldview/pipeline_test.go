package worldview_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/i474232898/worldview/internal/store"
	"github.com/i474232898/worldview/internal/worldview"
)

func TestPipelineRendersTokyo(t *testing.T) {
	w := newWorld()
	history := store.NewHistoryStore(store.NewMemoryKV())
	p := w.pipeline(worldview.Options{History: history})

	if p.State() != worldview.StateIdle {
		t.Fatalf("expected idle before any action, got %s", p.State())
	}

	d, err := p.Search(context.Background(), "Tokyo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.Weather == nil || d.Culture == nil {
		t.Fatalf("expected both panels, got %+v", d)
	}
	if d.Weather.Title != "Weather in Tokyo" {
		t.Fatalf("unexpected weather title %q", d.Weather.Title)
	}
	if d.Weather.CountryCode != "JP" || d.Weather.IconURL != "https://openweathermap.org/img/wn/02d@2x.png" {
		t.Fatalf("unexpected weather panel %+v", d.Weather)
	}
	if d.Culture.Food != "Sushi 🍣" || d.Culture.Greeting != "こんにちは" || d.Culture.Etiquette != "Bowing 🙇‍♂️" {
		t.Fatalf("unexpected culture panel %+v", d.Culture)
	}
	if d.Culture.Country != "Japan" || !reflect.DeepEqual(d.Culture.Languages, []string{"Japanese"}) {
		t.Fatalf("unexpected country data %+v", d.Culture)
	}
	if d.RunID == "" || d.Token != 1 {
		t.Fatalf("expected run id and token 1, got %q/%d", d.RunID, d.Token)
	}

	v := p.Snapshot()
	if v.State != worldview.StateRendered {
		t.Fatalf("expected rendered, got %s", v.State)
	}
	if v.Map.Marker == nil {
		t.Fatal("expected a marker")
	}
	if v.Map.Latitude != tokyoLat || v.Map.Longitude != tokyoLon || v.Map.Zoom != 8 {
		t.Fatalf("expected viewport on authoritative coordinates, got %+v", v.Map)
	}
	if v.Map.Marker.Latitude != tokyoLat || v.Map.Marker.Longitude != tokyoLon || v.Map.Marker.Geohash == "" {
		t.Fatalf("expected marker on authoritative coordinates, got %+v", v.Map.Marker)
	}
	if got := history.List(); !reflect.DeepEqual(got, []string{"Tokyo"}) {
		t.Fatalf("expected history [Tokyo], got %v", got)
	}
}

func TestPipelineReplacesMarker(t *testing.T) {
	w := newWorld()
	p := w.pipeline(worldview.Options{})
	ctx := context.Background()

	if _, err := p.Search(ctx, "Tokyo"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Search(ctx, "Paris"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := p.Snapshot().Map.Marker
	if m == nil || m.Latitude != parisLat || m.Longitude != parisLon {
		t.Fatalf("expected single marker on Paris, got %+v", m)
	}
}

func TestPipelineEmptySearchFailsWithoutNetwork(t *testing.T) {
	w := newWorld()
	history := store.NewHistoryStore(store.NewMemoryKV())
	p := w.pipeline(worldview.Options{History: history})

	d, err := p.Search(context.Background(), "  ")
	if !errors.Is(err, worldview.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if d.Error != worldview.LabelsFor(worldview.LangEnglish).Error {
		t.Fatalf("expected generic localized error, got %q", d.Error)
	}
	if d.Weather != nil || d.Culture != nil {
		t.Fatalf("expected empty panels, got %+v", d)
	}
	if searches, reverses := w.geocoder.counts(); searches+reverses != 0 {
		t.Fatalf("expected no geocoder calls, got %d", searches+reverses)
	}
	if w.weather.callCount() != 0 || w.countries.calls != 0 {
		t.Fatal("expected no upstream calls")
	}

	v := p.Snapshot()
	if v.State != worldview.StateFailed || v.Failure != worldview.KindInvalidInput {
		t.Fatalf("expected failed/invalid_input, got %s/%s", v.State, v.Failure)
	}
	if len(history.List()) != 0 {
		t.Fatalf("expected empty history, got %v", history.List())
	}
}

func TestPipelineFailureKeepsHistoryAndMap(t *testing.T) {
	w := newWorld()
	history := store.NewHistoryStore(store.NewMemoryKV())
	p := w.pipeline(worldview.Options{History: history, Language: worldview.LangJapanese})
	ctx := context.Background()

	if _, err := p.Search(ctx, "Tokyo"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := p.Snapshot().Map

	d, err := p.Search(ctx, "Atlantis")
	if !errors.Is(err, worldview.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if d.Error != worldview.LabelsFor(worldview.LangJapanese).Error {
		t.Fatalf("expected Japanese error message, got %q", d.Error)
	}

	v := p.Snapshot()
	if v.Display.Culture != nil {
		t.Fatal("expected culture panel cleared")
	}
	if !reflect.DeepEqual(v.Map, before) {
		t.Fatalf("expected map unchanged, got %+v want %+v", v.Map, before)
	}
	if got := history.List(); !reflect.DeepEqual(got, []string{"Tokyo"}) {
		t.Fatalf("expected history unchanged, got %v", got)
	}
}

func TestPipelineCultureFailure(t *testing.T) {
	w := newWorld()
	delete(w.countries.profiles, "FR")
	p := w.pipeline(worldview.Options{})

	_, err := p.Search(context.Background(), "Paris")
	if !errors.Is(err, worldview.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if v := p.Snapshot(); v.State != worldview.StateFailed || v.Failure != worldview.KindNotFound {
		t.Fatalf("expected failed/not_found, got %s/%s", v.State, v.Failure)
	}
}

func TestPipelineClickStateOnlyAddress(t *testing.T) {
	w := newWorld()
	p := w.pipeline(worldview.Options{})

	d, err := p.Click(context.Background(), 43.0, 11.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Weather.City != "Tuscany" {
		t.Fatalf("expected Tuscany, got %q", d.Weather.City)
	}
	if !reflect.DeepEqual(d.Culture.Languages, []string{"Italian", "Catalan", "German", "Latin"}) {
		t.Fatalf("expected language order preserved, got %v", d.Culture.Languages)
	}
}

func TestPipelineDeviceErrors(t *testing.T) {
	w := newWorld()
	p := w.pipeline(worldview.Options{})
	ctx := context.Background()

	if _, err := p.Locate(ctx); !errors.Is(err, worldview.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if v := p.Snapshot(); v.Failure != worldview.KindUnsupported {
		t.Fatalf("expected unsupported failure, got %s", v.Failure)
	}

	_, err := p.LocateWith(ctx, fakeLocator{err: worldview.ErrPermissionDenied})
	if !errors.Is(err, worldview.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}

	d, err := p.LocateWith(ctx, fakeLocator{lat: tokyoQueryLat, lon: tokyoQueryLon})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Weather.City != "Tokyo" {
		t.Fatalf("expected Tokyo, got %q", d.Weather.City)
	}
}

func TestPipelineStages(t *testing.T) {
	w := newWorld()
	p := w.pipeline(worldview.Options{})

	entered, release := w.weather.hold(coordKey(tokyoQueryLat, tokyoQueryLon))
	done := make(chan error, 1)
	go func() {
		_, err := p.Search(context.Background(), "Tokyo")
		done <- err
	}()

	<-entered
	if s := p.State(); s != worldview.StateFetchingWeather {
		t.Fatalf("expected fetching_weather, got %s", s)
	}
	release()

	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s := p.State(); s != worldview.StateRendered {
		t.Fatalf("expected rendered, got %s", s)
	}
}

// racePausedParis starts a Paris search that stalls in the weather stage,
// completes a Tokyo search, then lets Paris finish.
func racePausedParis(t *testing.T, w *world, p *worldview.Pipeline) (paris, tokyo worldview.Display) {
	t.Helper()
	ctx := context.Background()

	entered, release := w.weather.hold(coordKey(parisQueryLat, parisQueryLon))
	done := make(chan worldview.Display, 1)
	go func() {
		d, err := p.Search(ctx, "Paris")
		if err != nil {
			t.Errorf("paris: unexpected error: %v", err)
		}
		done <- d
	}()
	<-entered

	tokyo, err := p.Search(ctx, "Tokyo")
	if err != nil {
		t.Fatalf("tokyo: unexpected error: %v", err)
	}

	release()
	paris = <-done
	return paris, tokyo
}

func TestPipelineLastArrivalWins(t *testing.T) {
	w := newWorld()
	history := store.NewHistoryStore(store.NewMemoryKV())
	p := w.pipeline(worldview.Options{History: history, Policy: worldview.PolicyLastArrival})

	paris, tokyo := racePausedParis(t, w, p)
	if paris.Token != 1 || tokyo.Token != 2 {
		t.Fatalf("expected tokens 1 and 2, got %d and %d", paris.Token, tokyo.Token)
	}

	v := p.Snapshot()
	if v.Display.Weather == nil || v.Display.Weather.City != "Paris" {
		t.Fatalf("expected Paris displayed, got %+v", v.Display.Weather)
	}
	if v.Map.Marker.Latitude != parisLat {
		t.Fatalf("expected marker on Paris, got %+v", v.Map.Marker)
	}
	if got := history.List(); !reflect.DeepEqual(got, []string{"Paris", "Tokyo"}) {
		t.Fatalf("expected [Paris Tokyo], got %v", got)
	}
}

func TestPipelineLatestRequestWins(t *testing.T) {
	w := newWorld()
	history := store.NewHistoryStore(store.NewMemoryKV())
	p := w.pipeline(worldview.Options{History: history, Policy: worldview.PolicyLatestRequest})

	paris, _ := racePausedParis(t, w, p)
	if paris.Weather == nil || paris.Weather.City != "Paris" {
		t.Fatalf("expected the stale run to still return its own display, got %+v", paris)
	}

	v := p.Snapshot()
	if v.Display.Weather == nil || v.Display.Weather.City != "Tokyo" {
		t.Fatalf("expected Tokyo displayed, got %+v", v.Display.Weather)
	}
	if v.Token != 2 || v.Display.Token != 2 {
		t.Fatalf("expected token 2 displayed, got %d/%d", v.Token, v.Display.Token)
	}
	if got := history.List(); !reflect.DeepEqual(got, []string{"Tokyo"}) {
		t.Fatalf("expected [Tokyo], got %v", got)
	}
}

func TestPipelineSetLanguage(t *testing.T) {
	w := newWorld()
	prefs := &fakePrefs{}
	p := w.pipeline(worldview.Options{Preferences: prefs})
	ctx := context.Background()

	if _, err := p.Search(ctx, "Tokyo"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.SetLanguage(ctx, worldview.LangJapanese); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d := p.Snapshot().Display
	if d.Language != worldview.LangJapanese || d.Weather.Title != "天気：Tokyo" || d.Culture.Title != "文化情報" {
		t.Fatalf("expected Japanese labels, got %+v / %+v", d.Weather, d.Culture)
	}
	if d.Token != 1 {
		t.Fatalf("expected relabel to keep token 1, got %d", d.Token)
	}
	if !reflect.DeepEqual(prefs.saved, []worldview.Language{worldview.LangJapanese}) {
		t.Fatalf("expected preference saved, got %v", prefs.saved)
	}

	if err := p.SetLanguage(ctx, "fr"); !errors.Is(err, worldview.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if p.Language() != worldview.LangJapanese {
		t.Fatalf("expected language unchanged, got %s", p.Language())
	}
}

func TestPipelineRefresh(t *testing.T) {
	w := newWorld()
	p := w.pipeline(worldview.Options{})
	ctx := context.Background()

	if _, ran, err := p.Refresh(ctx); ran || err != nil {
		t.Fatalf("expected no refresh before a render, got ran=%v err=%v", ran, err)
	}

	if _, err := p.Click(ctx, 43.0, 11.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	calls := w.weather.callCount()

	d, ran, err := p.Refresh(ctx)
	if !ran || err != nil {
		t.Fatalf("expected refresh, got ran=%v err=%v", ran, err)
	}
	if w.weather.callCount() != calls+1 {
		t.Fatalf("expected one more weather call, got %d", w.weather.callCount()-calls)
	}
	if d.Weather.City != "Tuscany" || d.Token != 2 {
		t.Fatalf("expected Tuscany re-rendered with token 2, got %+v", d)
	}
	if _, reverses := w.geocoder.counts(); reverses != 1 {
		t.Fatalf("expected refresh to skip geocoding, got %d reverse lookups", reverses)
	}
}
