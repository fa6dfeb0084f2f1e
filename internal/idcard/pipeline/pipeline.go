// Package pipeline runs one card image through the full extraction
// sequence: condition the image, fan out to the OCR engines, locate and
// reconcile the fields, decode the ID, and score the result.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/bitaqa/bitaqa-backend/internal/idcard/domain"
	"github.com/bitaqa/bitaqa-backend/internal/idcard/engine"
	"github.com/bitaqa/bitaqa-backend/internal/idcard/locate"
	"github.com/bitaqa/bitaqa-backend/internal/idcard/natid"
	"github.com/bitaqa/bitaqa-backend/internal/idcard/preprocess"
	"github.com/bitaqa/bitaqa-backend/internal/idcard/reconcile"
	"github.com/bitaqa/bitaqa-backend/internal/idcard/validate"
	apperrors "github.com/bitaqa/bitaqa-backend/pkg/errors"
	"github.com/bitaqa/bitaqa-backend/pkg/logger"
)

// ErrNoEngineOutput is returned when no engine produced any usable text.
// It is the only fatal outcome; everything milder degrades into error
// bits on the record.
var ErrNoEngineOutput = errors.New("no engine produced usable text")

// Info describes how a scan went, for audit and events.
type Info struct {
	EngineOK     map[domain.EngineName]bool
	Preprocessed bool
	DurationMs   int64
}

// Pipeline is safe for concurrent use.
type Pipeline struct {
	engines *engine.Set
	preOpts preprocess.Options
	log     *logger.Logger
}

// New creates a pipeline over the given engine set.
func New(engines *engine.Set, preOpts preprocess.Options, log *logger.Logger) *Pipeline {
	return &Pipeline{
		engines: engines,
		preOpts: preOpts,
		log:     log.WithComponent("pipeline"),
	}
}

// Scan extracts a result record from one card image. Engine failures and
// preprocessing failures degrade the record's error code instead of
// aborting; the returned error is non-nil only when every engine came
// back empty, in which case the record still carries the error bits it
// accumulated.
func (p *Pipeline) Scan(ctx context.Context, imageData []byte) (domain.ResultRecord, Info, error) {
	start := time.Now()
	info := Info{EngineOK: make(map[domain.EngineName]bool, 2)}

	code := domain.ErrNone

	engineInput := imageData
	var idStrip []byte
	prepared, err := preprocess.Prepare(imageData, p.preOpts)
	switch {
	case err == nil:
		engineInput = prepared
		info.Preprocessed = true
		if p.preOpts.SplitRegions {
			// Recognize the printed band on its own and harvest the ID
			// digits from the strip below it; the full frame drowns both
			// in the card artwork.
			if text, cerr := preprocess.CropRegion(prepared, preprocess.RegionText); cerr == nil {
				engineInput = text
			}
			if strip, cerr := preprocess.CropRegion(prepared, preprocess.RegionIDStrip); cerr == nil {
				idStrip = strip
			}
		}
	case errors.Is(err, apperrors.ErrUnreadableImage):
		// Not an image at all; the engines will reject it too, so fail
		// fast instead of burning two engine timeouts.
		p.log.Warn().Err(err).Msg("image did not decode")
		info.DurationMs = time.Since(start).Milliseconds()
		rec := domain.ResultRecord{Error: domain.ErrPreprocessFailed | domain.ErrEnginesFailed | validate.Code(domain.ResultRecord{})}
		return rec, info, err
	default:
		// Conditioning failed on a decodable image; recognition still has
		// a chance on the raw bytes.
		p.log.Warn().Err(err).Msg("preprocessing failed, using raw image")
		code |= domain.ErrPreprocessFailed
	}

	outcomes := p.engines.RecognizeAll(ctx, engineInput)

	sets := make([]map[domain.FieldName]domain.FieldCandidate, 0, len(outcomes))
	usable := 0
	for _, o := range outcomes {
		eng := p.log.WithEngine(string(o.Engine))
		if o.Err != nil {
			eng.Warn().Err(o.Err).Msg("engine failed")
			continue
		}
		if o.Result.Empty() {
			eng.Info().Msg("engine returned no text")
			continue
		}
		info.EngineOK[o.Engine] = true
		usable++
		eng.Debug().Int("lines", len(o.Result.Lines)).Msg("engine produced text")
		sets = append(sets, locate.Fields(o.Result))
	}

	if idStrip != nil {
		stripSets, stripUsable := p.idCandidates(ctx, idStrip)
		sets = append(sets, stripSets...)
		usable += stripUsable
	}

	if usable == 0 {
		info.DurationMs = time.Since(start).Milliseconds()
		rec := domain.ResultRecord{}
		rec.Error = code | domain.ErrEnginesFailed | validate.Code(rec)
		return rec, info, ErrNoEngineOutput
	}

	merged := reconcile.Merge(sets...)
	rec := p.assemble(merged)
	rec.Error = code | validate.Code(rec)

	info.DurationMs = time.Since(start).Milliseconds()
	p.log.Info().
		Int("error_code", rec.Error).
		Bool("id_present", rec.ID != "").
		Int64("duration_ms", info.DurationMs).
		Msg("scan finished")

	return rec, info, nil
}

// idCandidates recognizes the ID strip and keeps only the digit field.
// The strip is too narrow to carry anything else worth reconciling.
func (p *Pipeline) idCandidates(ctx context.Context, strip []byte) ([]map[domain.FieldName]domain.FieldCandidate, int) {
	var sets []map[domain.FieldName]domain.FieldCandidate
	usable := 0
	for _, o := range p.engines.RecognizeAll(ctx, strip) {
		if o.Err != nil || o.Result.Empty() {
			continue
		}
		c, ok := locate.Fields(o.Result)[domain.FieldID]
		if !ok {
			continue
		}
		usable++
		sets = append(sets, map[domain.FieldName]domain.FieldCandidate{domain.FieldID: c})
	}
	return sets, usable
}

// assemble builds the record from the winning candidates. The birthdate
// is always derived from the ID digits, never read off the card face.
func (p *Pipeline) assemble(merged map[domain.FieldName]domain.FieldCandidate) domain.ResultRecord {
	rec := domain.ResultRecord{
		FirstName:  merged[domain.FieldFirstName].Value,
		SecondName: merged[domain.FieldSecondName].Value,
		Address:    merged[domain.FieldAddress].Value,
		ID:         merged[domain.FieldID].Value,
	}

	if natid.Valid(rec.ID) {
		if birthdate, ok := natid.DecodeBirthdate(rec.ID); ok {
			rec.Birthdate = birthdate
			if !natid.Plausible(birthdate, time.Now()) {
				p.log.Warn().Str("birthdate", birthdate).Msg("decoded birthdate is implausible")
			}
		}
	}

	return rec
}
