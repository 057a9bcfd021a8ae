package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/reospicespowders/product-backend-sub002/internal/cache"
	"github.com/reospicespowders/product-backend-sub002/internal/models"
	"github.com/reospicespowders/product-backend-sub002/internal/repositories"
)

// WorstQuestionThreshold is the incorrect-ratio cutoff above which a
// question is flagged as poorly performing.
const WorstQuestionThreshold = 0.69

// WorstQuestionLimit caps how many flagged questions the bundle carries.
const WorstQuestionLimit = 5

type analyticsService struct {
	db           *gorm.DB
	repo         repositories.Repository
	logger       *slog.Logger
	cacheManager *cache.CacheManager
}

func NewAnalyticsService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, cacheManager *cache.CacheManager) AnalyticsService {
	return &analyticsService{
		db:           db,
		repo:         repo,
		logger:       logger,
		cacheManager: cacheManager,
	}
}

// ownerData is everything the aggregator needs about one survey.
type ownerData struct {
	id      uint
	title   string
	invited []string
	results []*models.Result
}

// Analyze folds the results of the given surveys into one bundle. Every
// sub-computation tolerates empty inputs and returns zeroes rather than
// failing, so a dashboard over zero submissions still renders.
func (s *analyticsService) Analyze(ctx context.Context, ownerIDs []uint) (*AnalyticsBundle, error) {
	// The bundle may be served from cache to callers that pass the same ids
	// in a different order, so it carries the canonical sorted list.
	bundle := &AnalyticsBundle{
		OwnerIDs:          sortedOwnerIDs(ownerIDs),
		Attendees:         []Attendee{},
		GradeDistribution: []GradeBucket{},
		WorstQuestions:    []QuestionDifficulty{},
		CriteriaAverages:  []CriteriaAverage{},
		MultiTakers:       []MultiTaker{},
		Duration:          formatDurationStats(0, 0, 0),
	}
	if len(ownerIDs) == 0 {
		return bundle, nil
	}

	cacheKey := analyticsCacheKey(ownerIDs)
	var cached AnalyticsBundle
	err := s.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, &cached, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		return s.computeBundle(ctx, ownerIDs, bundle)
	})
	if err != nil {
		return nil, err
	}
	return &cached, nil
}

func (s *analyticsService) computeBundle(ctx context.Context, ownerIDs []uint, bundle *AnalyticsBundle) (*AnalyticsBundle, error) {
	owners := make([]*ownerData, 0, len(ownerIDs))
	for _, id := range ownerIDs {
		data, err := s.loadOwner(ctx, id)
		if err != nil {
			return nil, err
		}
		owners = append(owners, data)
	}

	var all []*models.Result
	for _, o := range owners {
		all = append(all, o.results...)
		bundle.TotalResults += len(o.results)
	}

	attendees, err := s.reconcileAttendees(ctx, owners)
	if err != nil {
		return nil, err
	}
	bundle.Attendees = attendees
	bundle.GradeDistribution = gradeDistribution(owners)
	bundle.WorstQuestions = worstQuestions(all)
	bundle.Duration = durationStats(all)
	bundle.CriteriaAverages = criteriaAverages(all)
	bundle.MultiTakers = multiTakers(owners)

	s.logger.Info("Analytics computed",
		"owners", len(ownerIDs),
		"results", bundle.TotalResults,
		"attendees", len(bundle.Attendees))

	return bundle, nil
}

func (s *analyticsService) loadOwner(ctx context.Context, ownerID uint) (*ownerData, error) {
	data := &ownerData{id: ownerID}

	survey, err := s.repo.Survey().GetByID(ctx, nil, ownerID)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get survey %d: %w", ownerID, err)
	}
	if survey != nil {
		data.title = survey.Title
	}

	invited, err := s.repo.Survey().InvitedEmails(ctx, nil, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get invites for survey %d: %w", ownerID, err)
	}
	data.invited = invited

	results, err := s.repo.Result().GetByOwner(ctx, nil, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get results for survey %d: %w", ownerID, err)
	}
	data.results = results

	return data, nil
}

// reconcileAttendees unions invited emails with every email that shows up
// in results (walk-ins included), deduplicated, and resolves them against
// the directory. No directory match marks the attendee as external.
func (s *analyticsService) reconcileAttendees(ctx context.Context, owners []*ownerData) ([]Attendee, error) {
	order := make([]string, 0)
	seen := make(map[string]bool)
	externalNames := make(map[string]string)

	normalize := func(email string) string {
		return strings.ToLower(strings.TrimSpace(email))
	}
	add := func(email string) {
		email = normalize(email)
		if email == "" || seen[email] {
			return
		}
		seen[email] = true
		order = append(order, email)
	}

	for _, o := range owners {
		for _, email := range o.invited {
			add(email)
		}
		for _, r := range o.results {
			add(r.RespondentEmail)
			if r.ExternalName != nil && *r.ExternalName != "" {
				externalNames[normalize(r.RespondentEmail)] = *r.ExternalName
			}
		}
	}

	profiles, err := s.repo.User().GetByEmails(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve attendee directory profiles: %w", err)
	}

	attendees := make([]Attendee, 0, len(order))
	for _, email := range order {
		attendee := Attendee{Email: email, External: true}
		if user, ok := profiles[email]; ok && user != nil {
			attendee.External = false
			attendee.Name = user.BestName()
			attendee.Phone = user.Phone
			attendee.Gender = user.Gender
		} else if name, ok := externalNames[email]; ok {
			attendee.Name = name
		}
		attendees = append(attendees, attendee)
	}
	return attendees, nil
}

// gradeDistribution counts results per resolved band, remembering which
// surveys contributed to each bucket.
func gradeDistribution(owners []*ownerData) []GradeBucket {
	order := make([]string, 0)
	counts := make(map[string]int)
	surveys := make(map[string]map[string]bool)

	for _, o := range owners {
		for _, r := range o.results {
			band := r.GradeTitle()
			if _, ok := counts[band]; !ok {
				order = append(order, band)
				surveys[band] = make(map[string]bool)
			}
			counts[band]++
			if o.title != "" {
				surveys[band][o.title] = true
			}
		}
	}

	buckets := make([]GradeBucket, 0, len(order))
	for _, band := range order {
		titles := make([]string, 0, len(surveys[band]))
		for title := range surveys[band] {
			titles = append(titles, title)
		}
		sort.Strings(titles)
		buckets = append(buckets, GradeBucket{Band: band, Count: counts[band], Surveys: titles})
	}
	return buckets
}

// worstQuestions ranks questions by incorrect ratio, keeping the top flagged
// entries above the threshold. Zero-mark questions are structural and never
// counted.
func worstQuestions(results []*models.Result) []QuestionDifficulty {
	type tally struct {
		text     string
		attempts int
		correct  int
	}
	order := make([]string, 0)
	tallies := make(map[string]*tally)

	for _, r := range results {
		questions, err := r.QuestionList()
		if err != nil {
			continue // malformed rows are skipped, never fatal
		}
		for i := range questions {
			q := &questions[i]
			if q.Marks <= 0 {
				continue
			}
			t, ok := tallies[q.Code]
			if !ok {
				t = &tally{text: q.Text}
				tallies[q.Code] = t
				order = append(order, q.Code)
			}
			t.attempts++
			if IsFullyCorrect(q) {
				t.correct++
			}
		}
	}

	flagged := make([]QuestionDifficulty, 0)
	for _, code := range order {
		t := tallies[code]
		if t.attempts == 0 {
			continue
		}
		ratio := float64(t.attempts-t.correct) / float64(t.attempts)
		if ratio > WorstQuestionThreshold {
			flagged = append(flagged, QuestionDifficulty{
				Code:           code,
				Text:           t.text,
				Attempts:       t.attempts,
				Correct:        t.correct,
				IncorrectRatio: ratio,
			})
		}
	}

	sort.SliceStable(flagged, func(i, j int) bool {
		return flagged[i].IncorrectRatio > flagged[j].IncorrectRatio
	})
	if len(flagged) > WorstQuestionLimit {
		flagged = flagged[:WorstQuestionLimit]
	}
	return flagged
}

func durationStats(results []*models.Result) DurationStats {
	if len(results) == 0 {
		return formatDurationStats(0, 0, 0)
	}

	total := 0
	min := results[0].TimeTakenSecs
	max := results[0].TimeTakenSecs
	for _, r := range results {
		total += r.TimeTakenSecs
		if r.TimeTakenSecs < min {
			min = r.TimeTakenSecs
		}
		if r.TimeTakenSecs > max {
			max = r.TimeTakenSecs
		}
	}
	return formatDurationStats(total/len(results), min, max)
}

// criteriaAverages computes the mean percentage per band, rounded to whole
// numbers.
func criteriaAverages(results []*models.Result) []CriteriaAverage {
	order := make([]string, 0)
	counts := make(map[string]int)
	sums := make(map[string]int)

	for _, r := range results {
		band := r.GradeTitle()
		if _, ok := counts[band]; !ok {
			order = append(order, band)
		}
		counts[band]++
		sums[band] += r.Percentage
	}

	averages := make([]CriteriaAverage, 0, len(order))
	for _, band := range order {
		averages = append(averages, CriteriaAverage{
			Band:              band,
			Count:             counts[band],
			AveragePercentage: roundedAverage(sums[band], counts[band]),
		})
	}
	return averages
}

// multiTakers finds respondents with results on more than one survey.
func multiTakers(owners []*ownerData) []MultiTaker {
	order := make([]string, 0)
	byEmail := make(map[string][]uint)
	seen := make(map[string]map[uint]bool)

	for _, o := range owners {
		for _, r := range o.results {
			email := r.RespondentEmail
			if seen[email] == nil {
				seen[email] = make(map[uint]bool)
				order = append(order, email)
			}
			if !seen[email][o.id] {
				seen[email][o.id] = true
				byEmail[email] = append(byEmail[email], o.id)
			}
		}
	}

	takers := make([]MultiTaker, 0)
	for _, email := range order {
		if len(byEmail[email]) > 1 {
			takers = append(takers, MultiTaker{Email: email, OwnerIDs: byEmail[email]})
		}
	}
	return takers
}

// ReducedResults loads a survey's results and collapses them per respondent
// under the given policy.
func (s *analyticsService) ReducedResults(ctx context.Context, ownerID uint, policy models.ReducePolicy) ([]*models.Result, error) {
	if !policy.IsValid() {
		return nil, NewValidationError("policy", "unsupported reduce policy", string(policy))
	}

	results, err := s.repo.Result().GetByOwner(ctx, nil, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get results: %w", err)
	}
	return ReduceResults(results, policy), nil
}

func sortedOwnerIDs(ownerIDs []uint) []uint {
	sorted := make([]uint, len(ownerIDs))
	copy(sorted, ownerIDs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted
}

func analyticsCacheKey(ownerIDs []uint) string {
	sorted := sortedOwnerIDs(ownerIDs)
	ids := make([]string, len(sorted))
	for i, id := range sorted {
		ids[i] = fmt.Sprintf("%d", id)
	}
	return "analytics:" + strings.Join(ids, ",")
}
