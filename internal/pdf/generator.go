package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"contract-backend/internal/shared/metrics"
	"contract-backend/internal/shared/storage/object"
	"contract-backend/internal/shared/storage/object/local"
	"contract-backend/internal/shared/telemetry"
	"contract-backend/internal/shared/util"
)

const contentType = "application/pdf"

var (
	// ErrGeneration is returned when every engine failed.
	ErrGeneration = errors.New("pdf generation failed")
	// ErrNotFound is returned for files missing from the PDF directory.
	ErrNotFound = errors.New("pdf not found")
	// ErrInvalidName is returned for names that are not plain .pdf file names.
	ErrInvalidName = errors.New("invalid pdf file name")
)

// File describes a PDF in the output directory.
type File struct {
	Name      string    `json:"filename"`
	Path      string    `json:"pdf_path"`
	Size      int64     `json:"size_bytes"`
	Engine    string    `json:"engine,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CleanupResult summarizes a retention sweep.
type CleanupResult struct {
	Deleted []string `json:"deleted"`
	Kept    int      `json:"kept"`
}

// Generator writes rendered contracts into the PDF directory and maintains it.
type Generator struct {
	Engines []Engine
	Store   *local.Store
	// Archive mirrors every written file when set. Mirror failures are logged only.
	Archive object.ObjectStore
	Now     func() time.Time
}

// NewGenerator builds a generator writing into store.
func NewGenerator(engines []Engine, store *local.Store, archive object.ObjectStore) *Generator {
	return &Generator{Engines: engines, Store: store, Archive: archive, Now: time.Now}
}

func (g *Generator) now() time.Time {
	if g.Now == nil {
		return time.Now()
	}
	return g.Now()
}

// ContractFileName is the default name for a contract's PDF:
// contract_<id>_<YYYYMMDD_HHMMSS>_<micros>.pdf
func ContractFileName(id int64, t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("contract_%d_%s_%06d.pdf", id, t.Format("20060102_150405"), t.Nanosecond()/1000)
}

// contractPrefix is the name prefix shared by every default-named PDF of a contract.
func contractPrefix(id int64) string {
	return "contract_" + strconv.FormatInt(id, 10) + "_"
}

// reservedName matches default names. Custom names may not take that form.
var reservedName = regexp.MustCompile(`(?i)^contract_[0-9]+_`)

// CustomFileName sanitizes a caller-supplied name and forces the .pdf suffix.
func CustomFileName(name string) (string, error) {
	clean, err := util.SanitizeFileName(name)
	if err != nil || reservedName.MatchString(clean) {
		return "", ErrInvalidName
	}
	return util.EnsureExt(clean, ".pdf"), nil
}

// CheckName accepts only names that are already sanitized and end in .pdf.
func CheckName(name string) error {
	clean, err := util.SanitizeFileName(name)
	if err != nil || clean != name || !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		return ErrInvalidName
	}
	return nil
}

// FileName picks the output name: the sanitized custom name when given,
// otherwise a fresh default name for the contract. Names already taken get
// a _1, _2, ... suffix so an existing file is never replaced.
func (g *Generator) FileName(ctx context.Context, id int64, custom string) (string, error) {
	name := ContractFileName(id, g.now())
	if strings.TrimSpace(custom) != "" {
		var err error
		if name, err = CustomFileName(custom); err != nil {
			return "", err
		}
	}
	return g.freeName(ctx, name)
}

func (g *Generator) freeName(ctx context.Context, name string) (string, error) {
	taken := func(candidate string) (bool, error) {
		_, err := g.Store.Stat(ctx, candidate)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, object.ErrNotFound):
			return false, nil
		default:
			return false, err
		}
	}
	used, err := taken(name)
	if err != nil || !used {
		return name, err
	}
	base := name[:len(name)-len(".pdf")]
	for i := 1; ; i++ {
		candidate := base + "_" + strconv.Itoa(i) + ".pdf"
		if used, err := taken(candidate); err != nil || !used {
			return candidate, err
		}
	}
}

// Generate converts html with the first engine that succeeds and stores the
// result under name.
func (g *Generator) Generate(ctx context.Context, html, name string) (File, error) {
	if err := CheckName(name); err != nil {
		return File{}, err
	}
	if len(g.Engines) == 0 {
		metrics.IncPDFFailed()
		return File{}, fmt.Errorf("%w: no engines configured", ErrGeneration)
	}

	start := time.Now()
	var (
		data   []byte
		engine string
		errs   []error
	)
	for _, e := range g.Engines {
		out, err := e.Render(ctx, html)
		if err == nil {
			data, engine = out, e.Name()
			break
		}
		telemetry.Warn("pdf.engine_failed", map[string]any{"engine": e.Name(), "file": name, "error": err})
		errs = append(errs, fmt.Errorf("%s: %w", e.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}
	if engine == "" {
		metrics.IncPDFFailed()
		return File{}, fmt.Errorf("%w: %w", ErrGeneration, errors.Join(errs...))
	}
	metrics.ObservePDFRenderMs(float64(time.Since(start).Milliseconds()))

	size, err := g.Store.SaveWithKey(ctx, name, contentType, bytes.NewReader(data))
	if err != nil {
		metrics.IncPDFFailed()
		return File{}, fmt.Errorf("%w: save %s: %w", ErrGeneration, name, err)
	}
	metrics.IncPDFGenerated()

	path, _ := g.Store.Path(name)
	file := File{Name: name, Path: path, Size: size, Engine: engine, CreatedAt: g.now().UTC()}
	telemetry.Info("pdf.generated", map[string]any{"file": name, "engine": engine, "size_bytes": size})

	if g.Archive != nil {
		if _, err := g.Archive.SaveWithKey(ctx, name, contentType, bytes.NewReader(data)); err != nil {
			telemetry.Warn("pdf.archive_failed", map[string]any{"file": name, "error": err})
		}
	}
	return file, nil
}

// Open returns a reader for a stored PDF.
func (g *Generator) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := CheckName(name); err != nil {
		return nil, err
	}
	rc, err := g.Store.Open(ctx, name)
	if errors.Is(err, object.ErrNotFound) {
		return nil, ErrNotFound
	}
	return rc, err
}

// Stat describes a stored PDF.
func (g *Generator) Stat(ctx context.Context, name string) (File, error) {
	if err := CheckName(name); err != nil {
		return File{}, err
	}
	info, err := g.Store.Stat(ctx, name)
	if errors.Is(err, object.ErrNotFound) {
		return File{}, ErrNotFound
	}
	if err != nil {
		return File{}, err
	}
	return g.fileFromInfo(info), nil
}

// List returns every PDF in the directory, oldest first.
func (g *Generator) List(ctx context.Context) ([]File, error) {
	infos, err := g.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]File, 0, len(infos))
	for _, info := range infos {
		if !strings.HasSuffix(strings.ToLower(info.Key), ".pdf") {
			continue
		}
		out = append(out, g.fileFromInfo(info))
	}
	return out, nil
}

// ListForContract returns the default-named PDFs of one contract, oldest first.
func (g *Generator) ListForContract(ctx context.Context, id int64) ([]File, error) {
	all, err := g.List(ctx)
	if err != nil {
		return nil, err
	}
	prefix := contractPrefix(id)
	out := make([]File, 0, 1)
	for _, f := range all {
		if strings.HasPrefix(f.Name, prefix) {
			out = append(out, f)
		}
	}
	return out, nil
}

// Latest returns the newest PDF of a contract.
func (g *Generator) Latest(ctx context.Context, id int64) (File, error) {
	files, err := g.ListForContract(ctx, id)
	if err != nil {
		return File{}, err
	}
	if len(files) == 0 {
		return File{}, ErrNotFound
	}
	return files[len(files)-1], nil
}

// Delete removes one PDF locally and from the archive.
func (g *Generator) Delete(ctx context.Context, name string) error {
	if err := CheckName(name); err != nil {
		return err
	}
	if err := g.Store.Delete(ctx, name); err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if g.Archive != nil {
		if err := g.Archive.Delete(ctx, name); err != nil && !errors.Is(err, object.ErrNotFound) {
			telemetry.Warn("pdf.archive_delete_failed", map[string]any{"file": name, "error": err})
		}
	}
	return nil
}

// DeleteForContract removes every default-named PDF of a contract and
// returns the deleted names.
func (g *Generator) DeleteForContract(ctx context.Context, id int64) ([]string, error) {
	files, err := g.ListForContract(ctx, id)
	if err != nil {
		return nil, err
	}
	deleted := make([]string, 0, len(files))
	for _, f := range files {
		if err := g.Delete(ctx, f.Name); err != nil && !errors.Is(err, ErrNotFound) {
			return deleted, err
		}
		deleted = append(deleted, f.Name)
	}
	return deleted, nil
}

// CleanupOlderThan deletes local PDFs last modified more than age ago.
// The archive keeps its copies.
func (g *Generator) CleanupOlderThan(ctx context.Context, age time.Duration) (CleanupResult, error) {
	res := CleanupResult{Deleted: []string{}}
	files, err := g.List(ctx)
	if err != nil {
		return res, err
	}
	cutoff := g.now().Add(-age)
	for _, f := range files {
		if !f.CreatedAt.Before(cutoff) {
			res.Kept++
			continue
		}
		if err := g.Store.Delete(ctx, f.Name); err != nil && !errors.Is(err, object.ErrNotFound) {
			return res, fmt.Errorf("delete %s: %w", f.Name, err)
		}
		res.Deleted = append(res.Deleted, f.Name)
	}
	telemetry.Info("pdf.cleanup", map[string]any{"deleted": len(res.Deleted), "kept": res.Kept, "max_age": age.String()})
	return res, nil
}

// Close releases engines holding external processes.
func (g *Generator) Close() error {
	var errs []error
	for _, e := range g.Engines {
		if c, ok := e.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

func (g *Generator) fileFromInfo(info object.Info) File {
	path, _ := g.Store.Path(info.Key)
	return File{Name: info.Key, Path: path, Size: info.Size, CreatedAt: info.ModTime.UTC()}
}
