package domain

type RatingSummary struct {
	TechnicianID string `bun:"technician_id"`
	Count        int    `bun:"count"`
	Total        int    `bun:"total"`
}

func (r RatingSummary) Average() float64 {
	if r.Count == 0 {
		return 0
	}
	return float64(r.Total) / float64(r.Count)
}

// SummarizeRatings aggregates the ratings of rated appointments per technician.
func SummarizeRatings(appts []Appointment) map[string]RatingSummary {
	out := make(map[string]RatingSummary)
	for _, a := range appts {
		if a.Rating == nil {
			continue
		}
		s := out[a.TechnicianID]
		s.TechnicianID = a.TechnicianID
		s.Count++
		s.Total += *a.Rating
		out[a.TechnicianID] = s
	}
	return out
}
