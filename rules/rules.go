//go:build ruleguard

// Package gorules holds the project's go-ruleguard lint rules, run through
// gocritic's ruleguard checker.
package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// EnhancedErrors flags fmt.Errorf in the domain packages. Errors there go
// through the internal/errors builder so they carry a component and a
// category the API maps to status codes.
//
//	return fmt.Errorf("sighting %s not found", id)
//
// becomes
//
//	return errors.Newf("sighting %s not found", id).
//	    Component("datastore").
//	    Category(errors.CategoryNotFound).
//	    Build()
func EnhancedErrors(m dsl.Matcher) {
	m.Match(`fmt.Errorf($*_)`).
		Where(m.File().PkgPath.Matches(`/internal/(analytics|dashboard|datastore|ebird|events|feed)$`)).
		Report("use errors.Newf(...).Component(...).Category(...).Build() instead of fmt.Errorf")
}

// ModuleLogger flags stdlib and fmt printing inside internal packages.
// Library code logs through the logger.Logger it was given.
func ModuleLogger(m dsl.Matcher) {
	m.Import("log")

	m.Match(`log.Printf($*_)`, `log.Println($*_)`, `log.Print($*_)`, `log.Fatalf($*_)`).
		Where(m.File().PkgPath.Matches(`/internal/`)).
		Report("log through the injected logger.Logger instead of the log package")

	m.Match(`fmt.Printf($*_)`, `fmt.Println($*_)`, `fmt.Print($*_)`).
		Where(m.File().PkgPath.Matches(`/internal/`)).
		Report("log through the injected logger.Logger instead of printing to stdout")
}

// RawSlog flags direct slog calls outside the logger package.
func RawSlog(m dsl.Matcher) {
	m.Import("log/slog")

	m.Match(`slog.$fn($*_)`).
		Where(m["fn"].Text.Matches(`^(Debug|Info|Warn|Error|Log)(Context)?$`) &&
			!m.File().PkgPath.Matches(`/internal/logger$`)).
		Report("use logger.Logger with typed fields instead of the slog package functions")
}

// WallClock flags time.Now in packages that take a clockwork.Clock. The
// current year and month must come from the injected clock so tests can
// fix them.
func WallClock(m dsl.Matcher) {
	m.Match(`time.Now().Year()`, `time.Now().Month()`, `time.Now().In($_)`).
		Where(m.File().PkgPath.Matches(`/internal/(dashboard|api/v1)$`)).
		Report("read the date from the injected clockwork.Clock instead of time.Now")
}

// TimeDateOnly detects magic date layouts in Format and Parse calls.
func TimeDateOnly(m dsl.Matcher) {
	m.Match(`$t.Format("2006-01-02")`).
		Where(m["t"].Type.Is("time.Time")).
		Report(`use $t.Format(time.DateOnly) instead of magic format string (Go 1.20+)`).
		Suggest(`$t.Format(time.DateOnly)`)

	m.Match(`time.Parse("2006-01-02", $s)`).
		Report(`use time.Parse(time.DateOnly, $s) instead of magic format string (Go 1.20+)`).
		Suggest(`time.Parse(time.DateOnly, $s)`)
}

// WaitGroupGo suggests sync.WaitGroup.Go over the manual Add/Done pattern.
func WaitGroupGo(m dsl.Matcher) {
	m.Match(
		`$wg.Add(1); go func() { defer $wg.Done(); $*body }()`,
	).
		Where(m["wg"].Type.Is("*sync.WaitGroup") || m["wg"].Type.Is("sync.WaitGroup")).
		Report("use $wg.Go(func() { $body }) instead of manual Add/Done pattern (Go 1.25+)").
		Suggest("$wg.Go(func() { $body })")
}

// BenchmarkLoop detects the old benchmark iteration pattern and suggests b.Loop().
func BenchmarkLoop(m dsl.Matcher) {
	m.Match(
		`for $i := 0; $i < $b.N; $i++ { $*body }`,
	).
		Where(m["b"].Type.Is("*testing.B")).
		Report("use for $b.Loop() { ... } instead of for $i := 0; $i < $b.N; $i++ (Go 1.24+)")
}
