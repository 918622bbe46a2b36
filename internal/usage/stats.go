package usage

// AllAccountsID keys the company-wide aggregate.
const AllAccountsID int64 = 0

// Job is one bot run inside an aggregate. An empty Error means success.
type Job struct {
	MeetingURL string
	Error      string
}

// AccountJobs is the raw per-account aggregate read from the bots tables.
type AccountJobs struct {
	AccountID           int64
	TotalBots           int
	AvgLengthHours      float64
	TotalHours          float64
	RecordingTokens     float64
	TranscriptionTokens float64
	ErrorCount          int
	TotalCount          int
	Jobs                []Job
}

// PlatformCount holds how many bots joined a platform and how many of them
// finished without error.
type PlatformCount struct {
	Value   int `json:"value"`
	Success int `json:"success"`
}

// Pair is a recording/transcription figure.
type Pair struct {
	Recording     float64 `json:"recording"`
	Transcription float64 `json:"transcription"`
}

// Stats is the report-ready summary of one account, or of every account
// under AllAccountsID.
type Stats struct {
	AccountID  int64                      `json:"accountId"`
	TotalBots  int                        `json:"totalBots"`
	AvgLength  float64                    `json:"avgLength"`
	Platforms  map[Platform]PlatformCount `json:"platformStats"`
	Hours      Pair                       `json:"hours"`
	Tokens     Pair                       `json:"tokens"`
	ErrorRate  float64                    `json:"errorRate"`
	ErrorCount int                        `json:"errorCount"`
}

// Compute turns a raw aggregate into Stats. Jobs on unknown platforms are
// left out of the platform breakdown and reported to onUnknown, but still
// count toward the totals.
func Compute(a AccountJobs, onUnknown func(url string)) Stats {
	platforms := map[Platform]PlatformCount{GoogleMeet: {}, Zoom: {}, Teams: {}}
	for _, j := range a.Jobs {
		if j.MeetingURL == "" {
			continue
		}
		p := ClassifyPlatform(j.MeetingURL)
		if p == Unknown {
			if onUnknown != nil {
				onUnknown(j.MeetingURL)
			}
			continue
		}
		c := platforms[p]
		c.Value++
		if j.Error == "" {
			c.Success++
		}
		platforms[p] = c
	}

	return Stats{
		AccountID:  a.AccountID,
		TotalBots:  a.TotalBots,
		AvgLength:  a.AvgLengthHours,
		Platforms:  platforms,
		Hours:      Pair{Recording: a.TotalHours, Transcription: a.TotalHours},
		Tokens:     Pair{Recording: a.RecordingTokens, Transcription: a.TranscriptionTokens},
		ErrorRate:  ErrorRate(a.ErrorCount, a.TotalCount),
		ErrorCount: a.ErrorCount,
	}
}

// ErrorRate is errors/total clamped to [0, 1]; 0 when total is 0.
func ErrorRate(errors, total int) float64 {
	if total <= 0 || errors <= 0 {
		return 0
	}
	return min(float64(errors)/float64(total), 1)
}

// Share is part/total as a percentage, 0 when total is 0.
func Share(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
