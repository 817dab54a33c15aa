package reporting

// Snapshot carries the totals the compliance heuristic is computed from.
type Snapshot struct {
	TotalActivities int64
	Pending         int64
	Rejected        int64
	TotalStudents   int64
}

// ComplianceWeights configures the penalty thresholds of ComplianceScore.
type ComplianceWeights struct {
	PendingRatioThreshold    float64
	PendingPenalty           float64
	RejectionRatioThreshold  float64
	RejectionPenalty         float64
	EngagementRatioThreshold float64
	EngagementPenalty        float64
}

// DefaultComplianceWeights are the institution defaults shown on the admin dashboard.
var DefaultComplianceWeights = ComplianceWeights{
	PendingRatioThreshold:    0.3,
	PendingPenalty:           20,
	RejectionRatioThreshold:  0.2,
	RejectionPenalty:         15,
	EngagementRatioThreshold: 2,
	EngagementPenalty:        10,
}

// Compliance is the derived health score and the ratios it was computed from.
type Compliance struct {
	Score           float64 `json:"score"`
	Level           string  `json:"level"`
	PendingRatio    float64 `json:"pending_ratio"`
	RejectionRatio  float64 `json:"rejection_ratio"`
	EngagementRatio float64 `json:"engagement_ratio"`
}

// ComplianceScore starts from 100 and subtracts a fixed penalty for each ratio
// past its threshold. The result is clamped to [0, 100].
func ComplianceScore(s Snapshot, w ComplianceWeights) Compliance {
	pendingRatio := ratio(s.Pending, s.TotalActivities)
	rejectionRatio := ratio(s.Rejected, s.TotalActivities)
	engagementRatio := ratio(s.TotalActivities, s.TotalStudents)

	score := 100.0
	if pendingRatio > w.PendingRatioThreshold {
		score -= w.PendingPenalty
	}
	if rejectionRatio > w.RejectionRatioThreshold {
		score -= w.RejectionPenalty
	}
	if engagementRatio < w.EngagementRatioThreshold {
		score -= w.EngagementPenalty
	}

	switch {
	case score < 0:
		score = 0
	case score > 100:
		score = 100
	}

	return Compliance{
		Score:           score,
		Level:           complianceLevel(score),
		PendingRatio:    round2(pendingRatio),
		RejectionRatio:  round2(rejectionRatio),
		EngagementRatio: round2(engagementRatio),
	}
}

func complianceLevel(score float64) string {
	switch {
	case score >= 80:
		return "excellent"
	case score >= 60:
		return "good"
	case score >= 40:
		return "fair"
	default:
		return "poor"
	}
}

func ratio(part, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total)
}
