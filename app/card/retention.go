package card

type EndedPolicy string

const (
	// EndedGroupByProgress keeps the ended records sharing the progress text of
	// the first ended record, which is the newest batch on the page.
	EndedGroupByProgress EndedPolicy = "group"
	// EndedLimit keeps the first Limit ended records.
	EndedLimit EndedPolicy = "limit"
)

type BucketOrder string

const (
	OrderOngoingFirst  BucketOrder = "ongoing_first"
	OrderUpcomingFirst BucketOrder = "upcoming_first"
)

const DefaultEndedLimit = 5

type Selector struct {
	Policy EndedPolicy
	Limit  int
	Order  BucketOrder
}

func NewSelector(policy EndedPolicy, limit int, order BucketOrder) *Selector {
	if policy == "" {
		policy = EndedGroupByProgress
	}
	if limit <= 0 {
		limit = DefaultEndedLimit
	}
	if order == "" {
		order = OrderOngoingFirst
	}
	return &Selector{Policy: policy, Limit: limit, Order: order}
}

// Select keeps every ongoing and upcoming record and a bounded slice of the
// ended ones, appended last.
func (s *Selector) Select(ongoing, upcoming, ended []NormalizedRecord) []NormalizedRecord {
	retained := s.retainEnded(ended)

	out := make([]NormalizedRecord, 0, len(ongoing)+len(upcoming)+len(retained))
	if s.Order == OrderUpcomingFirst {
		out = append(out, upcoming...)
		out = append(out, ongoing...)
	} else {
		out = append(out, ongoing...)
		out = append(out, upcoming...)
	}
	return append(out, retained...)
}

func (s *Selector) retainEnded(ended []NormalizedRecord) []NormalizedRecord {
	if len(ended) == 0 {
		return nil
	}

	switch s.Policy {
	case EndedLimit:
		if len(ended) <= s.Limit {
			return ended
		}
		return ended[:s.Limit]
	default:
		key := ended[0].ProgressText
		group := make([]NormalizedRecord, 0, len(ended))
		for _, record := range ended {
			if record.ProgressText == key {
				group = append(group, record)
			}
		}
		return group
	}
}
