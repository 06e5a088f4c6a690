package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/MrigankDubey/My-Second-app/internal/domain"
	"github.com/MrigankDubey/My-Second-app/internal/errors"
	"github.com/MrigankDubey/My-Second-app/internal/event"
	"github.com/MrigankDubey/My-Second-app/internal/selector"
	"github.com/MrigankDubey/My-Second-app/internal/session"
)

// userIDHeader carries the authenticated user id. Authentication itself is a
// gateway concern; the engine trusts the header.
const userIDHeader = "X-User-ID"

type Config struct {
	Router       gin.IRouter
	EventBus     *event.Bus
	Session      *session.Service
	Mastery      Mastery
	Catalog      Catalog
	Redis        Redis
	PubsubPrefix string
}

// Mastery is the read surface the progress endpoints need.
type Mastery interface {
	Progress(ctx context.Context, userID int64, practiceLimit int) (domain.Progress, error)
	WordMastery(ctx context.Context, userID, wordID int64) (domain.WordMastery, error)
}

// Catalog is the catalog surface: type counts for clients, ingestion for
// content tooling.
type Catalog interface {
	QuizTypeCounts(ctx context.Context) ([]domain.QuizTypeCount, error)
	AddQuestion(ctx context.Context, q domain.Question) (int64, error)
}

type Redis interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

type API struct {
	qss     *session.Service
	mastery Mastery
	catalog Catalog

	redis  Redis
	prefix string
}

func New(c Config) *API {
	a := &API{
		qss:     c.Session,
		mastery: c.Mastery,
		catalog: c.Catalog,
		redis:   c.Redis,
		prefix:  c.PubsubPrefix,
	}

	v1 := c.Router.Group("/v1")
	v1.POST("/sessions", a.createSession)
	v1.POST("/sessions/:session_id/rounds", a.submitRound)
	v1.GET("/sessions/:session_id", a.sessionSummary)
	v1.GET("/progress", a.progress)
	v1.GET("/words/:word_id/mastery", a.wordMastery)
	v1.GET("/quiz-types", a.quizTypes)
	v1.POST("/questions", a.createQuestion)

	// Register event handlers
	c.EventBus.Subscribe(domain.EventNameMasteryUpdated, func(ctx context.Context, e event.Event) error {
		return a.PublishMasteryUpdated(ctx, e.(domain.EventMasteryUpdated))
	})
	c.EventBus.Subscribe(domain.EventNameSessionCompleted, func(ctx context.Context, e event.Event) error {
		return a.PublishSessionCompleted(ctx, e.(domain.EventSessionCompleted))
	})

	return a
}

type (
	CreateSessionRequest struct {
		TargetCount  int            `json:"target_count"`
		Distribution map[string]int `json:"distribution"`
	}

	CreateSessionResponse struct {
		SessionID string     `json:"session_id"`
		Round     int        `json:"round"`
		Questions []Question `json:"questions"`
	}

	// Question is the client view of a catalog question. The correct answer
	// never leaves the server before grading.
	Question struct {
		QuestionID   int64    `json:"question_id"`
		QuestionText string   `json:"question_text"`
		QuizType     string   `json:"quiz_type"`
		Options      []string `json:"options"`
	}
)

func (a *API) createSession(c *gin.Context) {
	userID, ok := a.userID(c)
	if !ok {
		return
	}

	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("malformed request body: %v", err)))
		return
	}

	cfg := selector.DefaultQuizConfig()
	if req.TargetCount > 0 {
		cfg.TargetCount = req.TargetCount
	}
	if len(req.Distribution) > 0 {
		dist, err := parseDistribution(req.Distribution)
		if err != nil {
			abort(c, err)
			return
		}
		cfg.Distribution = dist
	}

	ss, err := a.qss.CreateSession(c.Request.Context(), session.CreateSessionRequest{
		UserID: userID,
		Quiz:   cfg,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreateSessionResponse{
		SessionID: ss.SessionID,
		Round:     ss.Round,
		Questions: toQuestions(ss.ActiveQuestions),
	})
}

type (
	SubmitRoundRequest struct {
		Round     int        `json:"round"`
		Responses []Response `json:"responses"`
	}

	Response struct {
		QuestionID     int64  `json:"question_id"`
		SelectedAnswer string `json:"selected_answer"`
	}

	SubmitRoundResponse struct {
		SessionID        string            `json:"session_id"`
		Round            int               `json:"round"`
		TotalQuestions   int               `json:"total_questions"`
		CorrectAnswers   int               `json:"correct_answers"`
		ScorePercentage  float64           `json:"score_percentage"`
		IsComplete       bool              `json:"is_complete"`
		InvalidResponses []InvalidResponse `json:"invalid_responses,omitempty"`
		NextQuestions    []Question        `json:"next_questions,omitempty"`
		MasteryUpdates   []WordMastery     `json:"mastery_updates,omitempty"`
	}

	InvalidResponse struct {
		QuestionID int64  `json:"question_id"`
		Reason     string `json:"reason"`
	}
)

func (a *API) submitRound(c *gin.Context) {
	userID, ok := a.userID(c)
	if !ok {
		return
	}

	var req SubmitRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("malformed request body: %v", err)))
		return
	}

	responses := make([]domain.Response, 0, len(req.Responses))
	for _, r := range req.Responses {
		responses = append(responses, domain.Response{
			QuestionID:     r.QuestionID,
			SelectedAnswer: r.SelectedAnswer,
		})
	}

	res, err := a.qss.SubmitRound(c.Request.Context(), session.SubmitRoundRequest{
		SessionID: c.Param("session_id"),
		UserID:    userID,
		Round:     req.Round,
		Responses: responses,
	})
	if err != nil {
		abort(c, err)
		return
	}

	resp := SubmitRoundResponse{
		SessionID:       res.SessionID,
		Round:           res.Round,
		TotalQuestions:  res.TotalQuestions,
		CorrectAnswers:  res.CorrectAnswers,
		ScorePercentage: res.ScorePercentage,
		IsComplete:      res.IsComplete,
		NextQuestions:   toQuestions(res.NextQuestions),
		MasteryUpdates:  toWordMasteries(res.MasteryUpdates),
	}
	for _, iv := range res.InvalidResponses {
		resp.InvalidResponses = append(resp.InvalidResponses, InvalidResponse{
			QuestionID: iv.QuestionID,
			Reason:     iv.Reason,
		})
	}

	c.JSON(http.StatusOK, resp)
}

type (
	SummaryResponse struct {
		SessionID             string         `json:"session_id"`
		CurrentRound          int            `json:"current_round"`
		IsCompleted           bool           `json:"is_completed"`
		TotalRounds           int            `json:"total_rounds"`
		OriginalQuestionCount int            `json:"original_question_count"`
		FirstRoundScore       float64        `json:"first_round_score"`
		Rounds                []RoundSummary `json:"rounds"`
	}

	RoundSummary struct {
		Round           int     `json:"round"`
		QuestionCount   int     `json:"question_count"`
		CorrectAnswers  int     `json:"correct_answers"`
		ScorePercentage float64 `json:"score_percentage"`
		IsPerfect       bool    `json:"is_perfect"`
	}
)

func (a *API) sessionSummary(c *gin.Context) {
	userID, ok := a.userID(c)
	if !ok {
		return
	}

	sum, err := a.qss.Summary(c.Request.Context(), session.SummaryRequest{
		SessionID: c.Param("session_id"),
		UserID:    userID,
	})
	if err != nil {
		abort(c, err)
		return
	}

	resp := SummaryResponse{
		SessionID:             sum.SessionID,
		CurrentRound:          sum.CurrentRound,
		IsCompleted:           sum.IsCompleted,
		TotalRounds:           sum.TotalRounds,
		OriginalQuestionCount: sum.OriginalQuestionCount,
		FirstRoundScore:       sum.FirstRoundScore,
	}
	for _, r := range sum.Rounds {
		resp.Rounds = append(resp.Rounds, RoundSummary{
			Round:           r.Round,
			QuestionCount:   r.QuestionCount,
			CorrectAnswers:  r.CorrectAnswers,
			ScorePercentage: r.ScorePercentage,
			IsPerfect:       r.IsPerfect,
		})
	}

	c.JSON(http.StatusOK, resp)
}

type (
	ProgressResponse struct {
		UserID               int64         `json:"user_id"`
		TotalWords           int           `json:"total_words"`
		TotalQuestions       int           `json:"total_questions"`
		MasteredQuestions    int           `json:"mastered_questions"`
		FullyMasteredWords   int           `json:"fully_mastered_words"`
		Words                []WordMastery `json:"words"`
		WordsNeedingPractice []WordMastery `json:"words_needing_practice"`
	}

	WordMastery struct {
		WordID            int64  `json:"word_id"`
		WordText          string `json:"word_text"`
		TotalQuestions    int    `json:"total_questions"`
		MasteredQuestions int    `json:"mastered_questions"`
		Percentage        string `json:"percentage"`
	}
)

func (a *API) progress(c *gin.Context) {
	userID, ok := a.userID(c)
	if !ok {
		return
	}

	practiceLimit := 10
	if raw := c.Query("practice_limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			abort(c, errors.New(errors.CodeInvalidArgument,
				errors.WithMessagef("invalid practice_limit: %s", raw)))
			return
		}
		practiceLimit = n
	}

	p, err := a.mastery.Progress(c.Request.Context(), userID, practiceLimit)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, ProgressResponse{
		UserID:               p.UserID,
		TotalWords:           p.TotalWords,
		TotalQuestions:       p.TotalQuestions,
		MasteredQuestions:    p.MasteredQuestions,
		FullyMasteredWords:   p.FullyMasteredWords,
		Words:                toWordMasteries(p.Words),
		WordsNeedingPractice: toWordMasteries(p.WordsNeedingPractice),
	})
}

func (a *API) wordMastery(c *gin.Context) {
	userID, ok := a.userID(c)
	if !ok {
		return
	}

	wordID, err := strconv.ParseInt(c.Param("word_id"), 10, 64)
	if err != nil {
		abort(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("invalid word id: %s", c.Param("word_id"))))
		return
	}

	wm, err := a.mastery.WordMastery(c.Request.Context(), userID, wordID)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, toWordMastery(wm))
}

type (
	QuizTypesResponse struct {
		QuizTypes []QuizTypeCount `json:"quiz_types"`
	}

	QuizTypeCount struct {
		QuizType      string `json:"quiz_type"`
		QuestionCount int    `json:"question_count"`
	}
)

type (
	CreateQuestionRequest struct {
		QuestionText  string   `json:"question_text"`
		QuizType      string   `json:"quiz_type"`
		CorrectAnswer string   `json:"correct_answer"`
		Options       []string `json:"options"`
	}

	CreateQuestionResponse struct {
		QuestionID int64 `json:"question_id"`
	}
)

func (a *API) createQuestion(c *gin.Context) {
	var req CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("malformed request body: %v", err)))
		return
	}

	qt := domain.QuizType(req.QuizType)
	if !qt.Valid() {
		abort(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("unknown quiz type: %s", req.QuizType)))
		return
	}
	if req.QuestionText == "" || req.CorrectAnswer == "" {
		abort(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("question text and correct answer are required")))
		return
	}

	id, err := a.catalog.AddQuestion(c.Request.Context(), domain.Question{
		QuestionText:  req.QuestionText,
		QuizType:      qt,
		CorrectAnswer: req.CorrectAnswer,
		Options:       req.Options,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreateQuestionResponse{QuestionID: id})
}

func (a *API) quizTypes(c *gin.Context) {
	counts, err := a.catalog.QuizTypeCounts(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}

	resp := QuizTypesResponse{QuizTypes: make([]QuizTypeCount, 0, len(counts))}
	for _, qc := range counts {
		resp.QuizTypes = append(resp.QuizTypes, QuizTypeCount{
			QuizType:      string(qc.QuizType),
			QuestionCount: qc.QuestionCount,
		})
	}

	c.JSON(http.StatusOK, resp)
}

func (a *API) userID(c *gin.Context) (int64, bool) {
	raw := c.GetHeader(userIDHeader)
	if raw == "" {
		abort(c, errors.New(errors.CodeUnauthenticated,
			errors.WithMessagef("missing %s header", userIDHeader)))
		return 0, false
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		abort(c, errors.New(errors.CodeUnauthenticated,
			errors.WithMessagef("invalid %s header: %s", userIDHeader, raw)))
		return 0, false
	}

	return id, true
}

func abort(c *gin.Context, err error) {
	e := errors.Convert(err)
	c.AbortWithStatusJSON(e.HTTPStatusCode(), e)
}

func parseDistribution(raw map[string]int) (map[domain.QuizType]int, error) {
	dist := make(map[domain.QuizType]int, len(raw))
	for name, count := range raw {
		qt := domain.QuizType(name)
		if !qt.Valid() {
			return nil, errors.New(errors.CodeInvalidArgument,
				errors.WithMessagef("unknown quiz type: %s", name))
		}
		if count < 0 {
			return nil, errors.New(errors.CodeInvalidArgument,
				errors.WithMessagef("negative count for quiz type: %s", name))
		}
		dist[qt] = count
	}

	return dist, nil
}

func toQuestions(qs []domain.Question) []Question {
	if len(qs) == 0 {
		return []Question{}
	}

	out := make([]Question, 0, len(qs))
	for _, q := range qs {
		out = append(out, Question{
			QuestionID:   q.QuestionID,
			QuestionText: q.QuestionText,
			QuizType:     string(q.QuizType),
			Options:      q.Options,
		})
	}

	return out
}

func toWordMastery(wm domain.WordMastery) WordMastery {
	return WordMastery{
		WordID:            wm.WordID,
		WordText:          wm.WordText,
		TotalQuestions:    wm.TotalQuestions,
		MasteredQuestions: wm.MasteredQuestions,
		Percentage:        wm.Percentage.StringFixed(2),
	}
}

func toWordMasteries(wms []domain.WordMastery) []WordMastery {
	if len(wms) == 0 {
		return nil
	}

	out := make([]WordMastery, 0, len(wms))
	for _, wm := range wms {
		out = append(out, toWordMastery(wm))
	}

	return out
}
