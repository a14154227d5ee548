package risk

import (
	"encoding/json"
	"math"
)

// Summary holds the descriptive statistics of a sorted sample. An empty
// sample (every draw failed) carries NaN throughout; the JSON form encodes
// those as null since encoding/json cannot represent NaN.
type Summary struct {
	Mean   float64
	Median float64
	StdDev float64
	Min    float64
	Max    float64
	P5     float64
	P25    float64
	P75    float64
	P95    float64
}

type summaryJSON struct {
	Mean   *float64 `json:"mean"`
	Median *float64 `json:"median"`
	StdDev *float64 `json:"stddev"`
	Min    *float64 `json:"min"`
	Max    *float64 `json:"max"`
	P5     *float64 `json:"p5"`
	P25    *float64 `json:"p25"`
	P75    *float64 `json:"p75"`
	P95    *float64 `json:"p95"`
}

func (s Summary) MarshalJSON() ([]byte, error) {
	f := func(v float64) *float64 {
		if math.IsNaN(v) {
			return nil
		}
		return &v
	}
	return json.Marshal(summaryJSON{
		Mean: f(s.Mean), Median: f(s.Median), StdDev: f(s.StdDev),
		Min: f(s.Min), Max: f(s.Max),
		P5: f(s.P5), P25: f(s.P25), P75: f(s.P75), P95: f(s.P95),
	})
}

func (s *Summary) UnmarshalJSON(data []byte) error {
	var in summaryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	f := func(v *float64) float64 {
		if v == nil {
			return math.NaN()
		}
		return *v
	}
	*s = Summary{
		Mean: f(in.Mean), Median: f(in.Median), StdDev: f(in.StdDev),
		Min: f(in.Min), Max: f(in.Max),
		P5: f(in.P5), P25: f(in.P25), P75: f(in.P75), P95: f(in.P95),
	}
	return nil
}

// HistogramBin is one equal-width bucket between the sample min and max.
type HistogramBin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// Summarize computes the summary statistics of an ascending-sorted sample.
// Aggregation is single-threaded and depends only on the multiset of values,
// never on the order parallel workers produced them in.
func Summarize(sorted []float64) Summary {
	n := len(sorted)
	if n == 0 {
		nan := math.NaN()
		return Summary{Mean: nan, Median: nan, StdDev: nan, Min: nan, Max: nan, P5: nan, P25: nan, P75: nan, P95: nan}
	}

	min, max := sorted[0], sorted[n-1]
	if min == max {
		// Degenerate sample: every statistic is the point value, exactly.
		return Summary{Mean: min, Median: min, StdDev: 0, Min: min, Max: max, P5: min, P25: min, P75: min, P95: min}
	}

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)

	var sq float64
	for _, v := range sorted {
		d := v - mean
		sq += d * d
	}

	return Summary{
		Mean:   mean,
		Median: percentileSorted(sorted, 50),
		StdDev: math.Sqrt(sq / float64(n)),
		Min:    min,
		Max:    max,
		P5:     percentileSorted(sorted, 5),
		P25:    percentileSorted(sorted, 25),
		P75:    percentileSorted(sorted, 75),
		P95:    percentileSorted(sorted, 95),
	}
}

// percentileSorted extracts percentile p (0..100) from an ascending-sorted
// sample by linear interpolation between the two nearest ranks.
func percentileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// BuildHistogram bins an ascending-sorted sample into equal-width buckets
// between min and max. A zero-width sample collapses into a single bucket.
func BuildHistogram(sorted []float64, bins int) []HistogramBin {
	if len(sorted) == 0 || bins <= 0 {
		return nil
	}
	min, max := sorted[0], sorted[len(sorted)-1]
	if min == max {
		return []HistogramBin{{Low: min, High: max, Count: len(sorted)}}
	}

	width := (max - min) / float64(bins)
	out := make([]HistogramBin, bins)
	for i := range out {
		out[i].Low = min + float64(i)*width
		out[i].High = min + float64(i+1)*width
	}
	out[bins-1].High = max // guard against accumulation drift on the last edge

	for _, v := range sorted {
		idx := int((v - min) / width)
		if idx >= bins {
			idx = bins - 1
		}
		out[idx].Count++
	}
	return out
}
