package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"onchain-index/internal/domain"
	"onchain-index/internal/onchain"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// IndicatorSource is anything that can produce a reading: a JSON API, a
// rendered page, or a cache in front of either.
type IndicatorSource interface {
	Name() string
	Fetch(ctx context.Context) (domain.Reading, error)
}

// Sources wires one source per indicator. UPDI must yield three values
// (short, medium, long); every other source yields one.
type Sources struct {
	UPDI  IndicatorSource
	Price IndicatorSource
	RSI   IndicatorSource
	Puell IndicatorSource
	NUPL  IndicatorSource
	MVRV  IndicatorSource
}

// Wrap returns a copy of s with every configured source passed through wrap.
func (s Sources) Wrap(wrap func(IndicatorSource) IndicatorSource) Sources {
	w := func(src IndicatorSource) IndicatorSource {
		if src == nil {
			return nil
		}
		return wrap(src)
	}
	return Sources{
		UPDI:  w(s.UPDI),
		Price: w(s.Price),
		RSI:   w(s.RSI),
		Puell: w(s.Puell),
		NUPL:  w(s.NUPL),
		MVRV:  w(s.MVRV),
	}
}

type SnapshotService struct {
	tracer  trace.Tracer
	sources Sources
	now     func() time.Time
}

func NewSnapshotService(tracer trace.Tracer, sources Sources) *SnapshotService {
	return &SnapshotService{
		tracer:  tracer,
		sources: sources,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Collect fetches every indicator one after another and derives the on-chain
// index. The first failure aborts the run; no partial snapshot is returned.
func (s *SnapshotService) Collect(ctx context.Context) (*domain.IndicatorSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, "snapshot-service.collect")
	defer span.End()

	updi, err := s.fetch(ctx, "updi", s.sources.UPDI, 3)
	if err != nil {
		return nil, err
	}

	scalars := make([]float64, 0, 5)
	for _, step := range []struct {
		name string
		src  IndicatorSource
	}{
		{"price", s.sources.Price},
		{"rsi", s.sources.RSI},
		{"puell", s.sources.Puell},
		{"nupl", s.sources.NUPL},
		{"mvrv", s.sources.MVRV},
	} {
		values, err := s.fetch(ctx, step.name, step.src, 1)
		if err != nil {
			return nil, err
		}
		scalars = append(scalars, values[0])
	}

	snap := &domain.IndicatorSnapshot{
		BTCPrice:      onchain.Round2(scalars[0]),
		BTCRSI:        onchain.Round2(scalars[1]),
		PuellMultiple: onchain.Round2(scalars[2]),
		NUPL:          onchain.Round2(scalars[3]),
		MVRV:          onchain.Round2(scalars[4]),
		UPDIShort:     onchain.Round2(updi[0]),
		UPDIMedium:    onchain.Round2(updi[1]),
		UPDILong:      onchain.Round2(updi[2]),
		FetchedAt:     s.now(),
	}

	in := onchain.Inputs{
		RSI:       snap.BTCRSI,
		Puell:     snap.PuellMultiple,
		NUPL:      snap.NUPL,
		MVRV:      snap.MVRV,
		UPDIShort: snap.UPDIShort,
	}
	for _, v := range onchain.CheckBounds(in) {
		log.Warn("indicator outside normalization range, index may leave [0,1]",
			"indicator", v.Bound.Name, "value", v.Value, "min", v.Bound.Min, "max", v.Bound.Max)
	}
	snap.OnChainIndex = onchain.Round2(onchain.Compute(in))

	span.SetAttributes(attribute.Float64("onchain.index", snap.OnChainIndex))
	log.Info("snapshot collected", "onchain_index", snap.OnChainIndex, "btc_price", snap.BTCPrice)
	return snap, nil
}

func (s *SnapshotService) fetch(ctx context.Context, step string, src IndicatorSource, arity int) ([]float64, error) {
	if src == nil {
		return nil, fmt.Errorf("%s source not configured", step)
	}

	reading, err := src.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if len(reading.Values) != arity {
		return nil, domain.NewFetchError(src.Name(), domain.ErrResponseFormat,
			fmt.Errorf("expected %d values, got %d", arity, len(reading.Values)))
	}
	for i, v := range reading.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, domain.NewFetchError(src.Name(), domain.ErrResponseFormat,
				fmt.Errorf("value %d is not a finite number: %v", i, v))
		}
	}
	log.Debug("indicator fetched", "source", src.Name(), "values", reading.Values)
	return reading.Values, nil
}
