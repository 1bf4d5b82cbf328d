package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"chatlog-archive/internal/domain"
	"chatlog-archive/internal/infra/metrics"
	"chatlog-archive/internal/usecase/archive"
	"chatlog-archive/internal/usecase/timeline"
)

// Handler обслуживает HTTP-представление архива.
type Handler struct {
	archive  *archive.Service
	timeline *timeline.Service
	channels domain.ChannelRepo
	cacheAge int
	log      zerolog.Logger
}

// NewHandler создаёт обработчик. cacheAge — max-age публичного кэша в секундах.
func NewHandler(archiveUC *archive.Service, timelineUC *timeline.Service, channels domain.ChannelRepo, cacheAge int, log zerolog.Logger) *Handler {
	return &Handler{archive: archiveUC, timeline: timelineUC, channels: channels, cacheAge: cacheAge, log: log}
}

// Register вешает маршруты архива на роутер.
func (h *Handler) Register(r chi.Router) {
	r.Route("/{channel}", func(r chi.Router) {
		r.Get("/", h.day)
		r.Get("/{year:[0-9]+}/{month:[0-9]+}/{day:[0-9]+}", h.day)
		r.Get("/search", h.search)
		r.Get("/msg/{id}", h.permalink)
		r.Get("/missed/{nick}", h.missed)
		r.Get("/timeline", h.buckets)
		r.Get("/stream", h.stream)
	})
}

type messageJSON struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Nick      string    `json:"nick"`
	Command   string    `json:"command"`
	Text      string    `json:"text"`
}

func messagesJSON(msgs []domain.Message) []messageJSON {
	out := make([]messageJSON, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageJSON{ID: m.ID, Timestamp: m.Timestamp, Nick: m.Nick, Command: m.Command, Text: m.Text})
	}
	return out
}

type dayPageResponse struct {
	Date        string        `json:"date"`
	Messages    []messageJSON `json:"messages"`
	Page        int           `json:"page"`
	PageCount   int           `json:"page_count"`
	PrevPage    string        `json:"prev_page,omitempty"`
	NextPage    string        `json:"next_page,omitempty"`
	CurrentPage string        `json:"current_page"`
	IsCurrent   bool          `json:"is_current"`
	Size        int           `json:"size"`
	Big         bool          `json:"big"`
	Highlight   int64         `json:"highlight,omitempty"`
}

func (h *Handler) day(w http.ResponseWriter, r *http.Request) {
	began := time.Now()
	defer func() { metrics.DayPageBuildSeconds.Observe(time.Since(began).Seconds()) }()

	ch, ok := h.channel(w, r)
	if !ok {
		return
	}

	req, err := parseDayRequest(r)
	if err != nil {
		h.renderError(w, err)
		return
	}

	res, err := h.archive.ResolveDayPage(r.Context(), ch, req)
	if err != nil {
		h.renderError(w, err)
		return
	}

	if res.Redirect != nil {
		http.Redirect(w, r, h.pageURL(ch, *res.Redirect, r.URL.Query()), http.StatusFound)
		return
	}

	resp := dayPageResponse{
		Date:      res.Day.Start.Format("2006-01-02"),
		Messages:  messagesJSON(res.Messages),
		Page:      res.Page,
		PageCount: res.PageCount,
		IsCurrent: res.Nav.IsLiveTail,
		Size:      res.Size,
		Big:       res.Big,
	}
	if res.Nav.Prev != nil {
		resp.PrevPage = h.pageURL(ch, *res.Nav.Prev, r.URL.Query())
	}
	if res.Nav.Next != nil {
		resp.NextPage = h.pageURL(ch, *res.Nav.Next, r.URL.Query())
	}
	if res.Nav.Current != nil {
		resp.CurrentPage = h.pageURL(ch, *res.Nav.Current, r.URL.Query())
	}
	if raw := r.URL.Query().Get("msg"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			resp.Highlight = id
		}
	}

	h.pageHeaders(w, resp.NextPage, resp.PrevPage)
	writeJSON(w, resp)
}

type searchResponse struct {
	Query     string        `json:"q"`
	Nick      string        `json:"nick,omitempty"`
	Messages  []messageJSON `json:"messages"`
	Page      int           `json:"page"`
	PageCount int           `json:"page_count"`
	PrevPage  string        `json:"prev_page,omitempty"`
	NextPage  string        `json:"next_page,omitempty"`
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	ch, ok := h.channel(w, r)
	if !ok {
		return
	}

	spec, err := archive.ParsePageSpec(r.URL.Query().Get("page"))
	if err != nil {
		h.renderError(w, err)
		return
	}

	res, err := h.archive.ResolveSearchPage(r.Context(), ch, r.URL.Query().Get("q"), spec)
	if err != nil {
		h.renderError(w, err)
		return
	}

	resp := searchResponse{
		Query:     res.Query,
		Nick:      res.Nick,
		Messages:  messagesJSON(res.Messages),
		Page:      res.Page,
		PageCount: res.PageCount,
	}
	if res.Prev > 0 {
		resp.PrevPage = h.searchURL(ch, r.URL.Query(), res.Prev)
	}
	if res.Next > 0 {
		resp.NextPage = h.searchURL(ch, r.URL.Query(), res.Next)
	}

	h.pageHeaders(w, resp.NextPage, resp.PrevPage)
	writeJSON(w, resp)
}

func (h *Handler) permalink(w http.ResponseWriter, r *http.Request) {
	ch, ok := h.channel(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.renderError(w, domain.ErrNotFound)
		return
	}

	target, err := h.archive.ResolvePermalink(r.Context(), ch, id)
	if err != nil {
		h.renderError(w, err)
		return
	}

	params := r.URL.Query()
	params.Set("msg", strconv.FormatInt(target.MessageID, 10))
	ref := archive.PageRef{Date: target.Date, Page: target.Page}
	http.Redirect(w, r, h.pageURL(ch, ref, params), http.StatusMovedPermanently)
}

type missedResponse struct {
	Nick       string        `json:"nick"`
	Messages   []messageJSON `json:"messages"`
	FetchAfter time.Time     `json:"fetch_after"`
}

func (h *Handler) missed(w http.ResponseWriter, r *http.Request) {
	ch, ok := h.channel(w, r)
	if !ok {
		return
	}

	nick := chi.URLParam(r, "nick")
	res, err := h.archive.ResolveMissedActivity(r.Context(), ch, nick)
	if err != nil {
		h.renderError(w, err)
		return
	}

	writeJSON(w, missedResponse{Nick: nick, Messages: messagesJSON(res.Messages), FetchAfter: res.FetchAfter})
}

func (h *Handler) buckets(w http.ResponseWriter, r *http.Request) {
	ch, ok := h.channel(w, r)
	if !ok {
		return
	}

	buckets, err := h.timeline.Build(r.Context(), ch)
	if err != nil {
		h.renderError(w, err)
		return
	}
	if buckets.Empty() {
		writeJSON(w, struct{}{})
		return
	}
	writeJSON(w, buckets)
}

// stream отдаёт внутренний редирект на внешний стриминговый эндпоинт;
// живая лента не входит в ядро архива.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	ch, ok := h.channel(w, r)
	if !ok {
		return
	}

	w.Header().Set("X-Accel-Redirect", fmt.Sprintf("/internal-channel-stream/%d", ch.ID))
	if lastEvent := r.Header.Get("Last-Event-ID"); lastEvent != "" {
		w.Header().Set("Last-Event-ID", lastEvent)
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) channel(w http.ResponseWriter, r *http.Request) (domain.Channel, bool) {
	slug := chi.URLParam(r, "channel")
	ch, err := h.channels.GetBySlug(r.Context(), slug)
	if err != nil {
		h.renderError(w, err)
		return domain.Channel{}, false
	}
	return ch, true
}

// parseDayRequest собирает запрос дневной страницы из path- и query-параметров.
// Дата в query принимается только целиком: год, месяц и день вместе.
func parseDayRequest(r *http.Request) (archive.DayRequest, error) {
	q := r.URL.Query()

	spec, err := archive.ParsePageSpec(q.Get("page"))
	if err != nil {
		return archive.DayRequest{}, err
	}
	req := archive.DayRequest{Page: spec, TZ: q.Get("tz")}

	rawYear := chi.URLParam(r, "year")
	rawMonth := chi.URLParam(r, "month")
	rawDay := chi.URLParam(r, "day")
	if rawYear == "" {
		rawYear, rawMonth, rawDay = q.Get("year"), q.Get("month"), q.Get("day")
	}
	if rawYear == "" && rawMonth == "" && rawDay == "" {
		return req, nil
	}
	if rawYear == "" || rawMonth == "" || rawDay == "" {
		return archive.DayRequest{}, domain.ErrInvalidDate
	}

	for _, part := range []struct {
		raw string
		dst *int
	}{{rawYear, &req.Year}, {rawMonth, &req.Month}, {rawDay, &req.Day}} {
		n, err := strconv.Atoi(part.raw)
		if err != nil || n < 1 {
			return archive.DayRequest{}, domain.ErrInvalidDate
		}
		*part.dst = n
	}
	return req, nil
}

// pageURL строит адрес дневной страницы, сохраняя исходные query-параметры.
func (h *Handler) pageURL(ch domain.Channel, ref archive.PageRef, params url.Values) string {
	copied := url.Values{}
	for key, vals := range params {
		copied[key] = vals
	}
	copied.Set("page", strconv.Itoa(ref.Page))
	return fmt.Sprintf("/%s/%04d/%02d/%02d?%s", ch.Slug, ref.Date.Year(), int(ref.Date.Month()), ref.Date.Day(), copied.Encode())
}

func (h *Handler) searchURL(ch domain.Channel, params url.Values, page int) string {
	copied := url.Values{}
	for key, vals := range params {
		copied[key] = vals
	}
	copied.Set("page", strconv.Itoa(page))
	return fmt.Sprintf("/%s/search?%s", ch.Slug, copied.Encode())
}

// pageHeaders выставляет SEO-заголовок Link и режим кэширования:
// страницы с продолжением публично кэшируемы, живой хвост — нет.
func (h *Handler) pageHeaders(w http.ResponseWriter, next, prev string) {
	links := ""
	if next != "" {
		links = fmt.Sprintf("<%s>; rel=\"next\"", next)
	}
	if prev != "" {
		if links != "" {
			links += ","
		}
		links += fmt.Sprintf("<%s>; rel=\"prev\"", prev)
	}
	if links != "" {
		w.Header().Set("Link", links)
	}
	if next != "" {
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", h.cacheAge))
	} else {
		w.Header().Set("Cache-Control", "private")
	}
}

func (h *Handler) renderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidDate):
		writeError(w, http.StatusNotFound, "Invalid date.")
	case errors.Is(err, domain.ErrInvalidPage):
		writeError(w, http.StatusNotFound, "Invalid page.")
	case errors.Is(err, domain.ErrNeverLeft):
		writeError(w, http.StatusNotFound, "User hasn't left room")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	default:
		h.log.Error().Err(err).Msg("httpapi: internal error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg})
}
