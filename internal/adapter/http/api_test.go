package http_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/couchcryptid/disaster-watch-service/internal/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestListAlerts(t *testing.T) {
	env := newTestEnv(t)
	env.store.alerts = []domain.DisasterAlert{{ID: "a1", Type: domain.HazardFlood, Severity: 4, Active: true}}

	rec := env.do(http.MethodGet, "/api/alerts?type=flood,storm&active=true&limit=10", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[[]domain.DisasterAlert](t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, []domain.HazardType{domain.HazardFlood, domain.HazardStorm}, env.store.alertFilter.Types)
	require.NotNil(t, env.store.alertFilter.Active)
	assert.True(t, *env.store.alertFilter.Active)
	assert.Equal(t, 10, env.store.alertFilter.Limit)
}

func TestListAlerts_BadQuery(t *testing.T) {
	env := newTestEnv(t)

	for _, q := range []string{"type=meteor", "active=sometimes", "limit=0"} {
		rec := env.do(http.MethodGet, "/api/alerts?"+q, "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		assert.Contains(t, decode[map[string]string](t, rec)["error"], "invalid input")
	}
}

func TestListAlerts_StoreErrorHidesDetail(t *testing.T) {
	env := newTestEnv(t)
	env.store.err = errors.New("dial tcp 10.0.0.5:3306: connection refused")

	rec := env.do(http.MethodGet, "/api/alerts", "", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", decode[map[string]string](t, rec)["error"])
}

func TestListRealtimeAlerts(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/realtime-alerts", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4, env.store.minSeverity)

	rec = env.do(http.MethodGet, "/api/realtime-alerts?min_severity=2", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, env.store.minSeverity)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/realtime-alerts?min_severity=9", "", "").Code)
}

func TestCreateRealtimeAlert(t *testing.T) {
	env := newTestEnv(t)
	admin := signToken(t, "ops", "admin")
	body := `{"title":"แผ่นดินไหวรุนแรง","message":"หลบใต้โต๊ะ","severity_level":5,"alert_type":"earthquake",
		"coordinates":{"lat":18.79,"lon":98.98},"radius_km":100,"affected_provinces":["เชียงใหม่"]}`

	rec := env.do(http.MethodPost, "/api/admin/realtime-alerts", body, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	got := decode[domain.RealtimeAlert](t, rec)
	assert.NotEmpty(t, got.ID)
	assert.True(t, got.Active, "alerts default to active")
	require.Len(t, env.store.realtime, 1)
	require.Len(t, env.publisher.published, 1)
	assert.Equal(t, got.ID, env.publisher.published[0].ID)
}

func TestCreateRealtimeAlert_Invalid(t *testing.T) {
	env := newTestEnv(t)
	admin := signToken(t, "ops", "admin")

	rec := env.do(http.MethodPost, "/api/admin/realtime-alerts", `{"title":"x","severity_level":7,"alert_type":"flood"}`, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/admin/realtime-alerts", `{"title":"x","severity_level":3,"alert_type":"meteor"}`, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, env.publisher.published)
}

func TestCreateRealtimeAlert_PublishFailure(t *testing.T) {
	env := newTestEnv(t)
	env.publisher.err = errors.New("kafka: leader not available")

	rec := env.do(http.MethodPost, "/api/admin/realtime-alerts",
		`{"title":"น้ำท่วม","severity_level":4,"alert_type":"flood","coordinates":{"lat":13.7,"lon":100.5}}`,
		signToken(t, "ops", "admin"))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Len(t, env.store.realtime, 1)
}

func TestNearbyHazards(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/hazards/nearby?lat=18.79&lon=98.98", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[domain.FilterResult](t, rec)
	require.NotNil(t, res.Headline)
	assert.Equal(t, "eq-1", res.Headline.ID)
	assert.Contains(t, res.Message, "แผ่นดินไหว")
	assert.Nil(t, env.hazards.opts.EnabledTypes)
}

func TestNearbyHazards_NoLocationIsNeutral(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/hazards/nearby", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[domain.FilterResult](t, rec)
	assert.Empty(t, res.Hazards)
	assert.Equal(t, domain.MessageLocationUnavailable, res.Message)
	assert.Nil(t, env.hazards.user)
}

func TestNearbyHazards_BadQuery(t *testing.T) {
	env := newTestEnv(t)

	for _, q := range []string{"lat=18.79", "lat=x&lon=1", "lat=95&lon=0", "lat=1&lon=1&radius_km=-3", "lat=1&lon=1&types=meteor"} {
		assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/hazards/nearby?"+q, "", "").Code, q)
	}
}

func TestNearbyHazards_AppliesSavedUserFilter(t *testing.T) {
	env := newTestEnv(t)
	token := signToken(t, "u1", "user")

	env.do(http.MethodGet, "/api/hazards/nearby?lat=18.79&lon=98.98", "", token)
	assert.Zero(t, env.hazards.opts.MaxDistanceKM, "default settings do not narrow the filter")

	_, err := env.settings.Put(t.Context(), domain.Settings{UserID: "u1", AlertRadiusKM: 20, NotificationsEnabled: true})
	require.NoError(t, err)
	prefs := domain.DefaultPreferences("u1")
	prefs.NotificationSettings[domain.HazardEarthquake] = false
	env.store.prefs["u1"] = prefs

	rec := env.do(http.MethodGet, "/api/hazards/nearby?lat=18.79&lon=98.98", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20.0, env.hazards.opts.MaxDistanceKM)
	assert.False(t, env.hazards.opts.EnabledTypes[domain.HazardEarthquake])
	assert.True(t, env.hazards.opts.EnabledTypes[domain.HazardFlood])
	assert.Empty(t, decode[domain.FilterResult](t, rec).Hazards)

	env.do(http.MethodGet, "/api/hazards/nearby?lat=18.79&lon=98.98&radius_km=300", "", token)
	assert.Equal(t, 300.0, env.hazards.opts.MaxDistanceKM, "query overrides saved radius")
}

func TestVictimReports(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/victim-reports", `{"name":"สมหญิง","status":"needs-help","geo":{"lat":7.0,"lon":100.5}}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, domain.VictimNeedsHelp, decode[domain.VictimReport](t, rec).Status)

	rec = env.do(http.MethodPost, "/api/victim-reports", `{"name":"สมหญิง","status":"lost"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/api/victim-reports?status=needs_help,trapped", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []domain.VictimStatus{domain.VictimNeedsHelp, domain.VictimTrapped}, env.store.victimStatuses)
	assert.Len(t, decode[[]domain.VictimReport](t, rec), 1)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/victim-reports?status=lost", "", "").Code)
}

func TestIncidentReport_JSON(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/incident-reports",
		`{"type":"landslide","severity":3,"description":"ดินสไลด์ปิดถนน","images":["http://img/1.jpg"]}`,
		signToken(t, "u7", "user"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	got := decode[domain.IncidentReport](t, rec)
	assert.Equal(t, "u7", got.ReporterID)
	assert.Equal(t, []string{"http://img/1.jpg"}, got.Images)

	rec = env.do(http.MethodGet, "/api/incident-reports", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.IncidentReport](t, rec), 1)
}

func TestIncidentReport_Multipart(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("type", "flood"))
	require.NoError(t, w.WriteField("severity", "4"))
	require.NoError(t, w.WriteField("description", "น้ำท่วมถึงหน้าต่าง"))
	require.NoError(t, w.WriteField("lat", "13.75"))
	require.NoError(t, w.WriteField("lon", "100.50"))
	part, err := w.CreateFormFile("images", "street.jpg")
	require.NoError(t, err)
	_, _ = part.Write([]byte("jpeg-bytes"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/incident-reports", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	got := decode[domain.IncidentReport](t, rec)
	assert.Equal(t, []string{"http://minio.local/bucket/incidents/street.jpg"}, got.Images)
	require.NotNil(t, got.Geo)
	assert.Equal(t, 13.75, got.Geo.Lat)
	assert.Equal(t, []string{"street.jpg"}, env.images.uploaded)
}

func TestSurveys(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/surveys/satisfaction", `{"ratings":{"map":5,"overall":4},"comment":"ดี"}`, "")
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(http.MethodPost, "/api/surveys/booth", `{"ratings":{"overall":5}}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "consent is required")

	rec = env.do(http.MethodPost, "/api/surveys/booth", `{"ratings":{"overall":5},"consent":true,"organization":"ปภ."}`, "")
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	assert.Len(t, env.store.satisfaction, 1)
	assert.Len(t, env.store.booth, 1)
}

func TestPreferences(t *testing.T) {
	env := newTestEnv(t)
	token := signToken(t, "u1", "user")
	sub := env.hub.Subscribe(t.Context(), domainSubscriber("u1"))

	rec := env.do(http.MethodPut, "/api/preferences",
		`{"preferred_areas":["เชียงใหม่"],"notification_settings":{"storm":false}}`, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decode[domain.UserPreferences](t, rec)
	assert.Equal(t, "u1", got.UserID)
	assert.False(t, got.Wants(domain.HazardStorm))
	assert.True(t, got.Wants(domain.HazardFlood))
	assert.Equal(t, []string{"เชียงใหม่"}, env.store.prefs["u1"].PreferredAreas)

	flood := domain.RealtimeAlert{ID: "rt-2", Title: "น้ำท่วม", SeverityLevel: 4, AlertType: domain.HazardFlood,
		Geo: domain.Geo{Lat: 18.8, Lon: 99.0}, AffectedProvinces: []string{"เชียงใหม่"}, Active: true}
	assert.Equal(t, 1, env.hub.Broadcast(flood), "open sessions follow the new areas")
	<-sub.C()

	rec = env.do(http.MethodPut, "/api/preferences", `{"notification_settings":{"meteor":true}}`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/preferences/devices", `{"token":"fcm-abc"}`, token)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(http.MethodGet, "/api/preferences", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"fcm-abc"}, decode[domain.UserPreferences](t, rec).DeviceTokens)
}

func TestSettings(t *testing.T) {
	env := newTestEnv(t)
	token := signToken(t, "u1", "user")

	rec := env.do(http.MethodGet, "/api/settings", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.DefaultSettings("u1").AlertRadiusKM, decode[domain.Settings](t, rec).AlertRadiusKM)

	rec = env.do(http.MethodPut, "/api/settings", `{"sound_enabled":false}`, token)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[domain.Settings](t, rec)
	assert.False(t, got.SoundEnabled)
	assert.True(t, got.NotificationsEnabled, "unsent fields keep their stored value")

	rec = env.do(http.MethodPut, "/api/settings", `{"alert_radius_km":-5}`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestArticles(t *testing.T) {
	env := newTestEnv(t)
	admin := signToken(t, "editor", "admin")

	rec := env.do(http.MethodPost, "/api/admin/articles", `{"kind":"guide","title":"เตรียมถุงยังชีพ","content":"น้ำ อาหาร ไฟฉาย"}`, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[domain.Article](t, rec)

	rec = env.do(http.MethodGet, "/api/articles?kind=guide", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Article](t, rec), 1)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/articles?kind=video", "", "").Code)

	rec = env.do(http.MethodPut, "/api/admin/articles/"+created.ID, `{"title":"ถุงยังชีพ 72 ชั่วโมง","content":"ฉบับปรับปรุง"}`, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[domain.Article](t, rec)
	assert.Equal(t, domain.KindGuide, updated.Kind, "kind is kept when omitted")
	assert.Equal(t, created.CreatedAt.Unix(), updated.CreatedAt.Unix())

	rec = env.do(http.MethodGet, "/api/articles/"+created.ID, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ฉบับปรับปรุง", decode[domain.Article](t, rec).Content)

	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/api/admin/articles/"+created.ID, "", admin).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/articles/"+created.ID, "", "").Code)
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	env.store.stats = domain.Stats{
		ActiveAlertsByType:    map[domain.HazardType]int{domain.HazardFlood: 3},
		VictimReportsByStatus: map[domain.VictimStatus]int{domain.VictimTrapped: 2},
	}

	rec := env.do(http.MethodGet, "/api/stats", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[domain.Stats](t, rec)
	assert.Equal(t, 3, got.ActiveAlertsByType[domain.HazardFlood])
	assert.Equal(t, 2, got.VictimReportsByStatus[domain.VictimTrapped])
	assert.False(t, got.GeneratedAt.IsZero())
}

func TestChat(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/ai-chat", `{"message":"แผ่นดินไหวต้องทำอย่างไร","chatHistory":[{"role":"user","content":"สวัสดี"},{"role":"system","content":"x"}]}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "ออกจากอาคารทันที", decode[map[string]string](t, rec)["response"])
	assert.Equal(t, domain.DefaultSystemPrompt, env.chat.got.SystemPrompt)
	assert.Len(t, env.chat.got.History, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.ChatRequests.WithLabelValues("success")))

	rec = env.do(http.MethodPost, "/ai-chat", `{"message":"  "}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(http.MethodPost, "/ai-chat", `not json`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 2.0, testutil.ToFloat64(env.metrics.ChatRequests.WithLabelValues("invalid")))

	env.chat.err = fmt.Errorf("%w: openai: status 429", domain.ErrUpstream)
	rec = env.do(http.MethodPost, "/ai-chat", `{"message":"hi"}`, "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "upstream")
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.ChatRequests.WithLabelValues("upstream_error")))
}

func TestDamageAssessments(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/damage-assessments", `{"imageUrl":"http://img/house.jpg"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[domain.DamageAssessment](t, rec)
	assert.Equal(t, domain.AssessmentPending, created.Status)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/api/damage-assessments", `{}`, "").Code)

	env.damage.result = created
	env.damage.result.Status = domain.AssessmentCompleted
	rec = env.do(http.MethodGet, "/api/damage-assessments/"+created.ID, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/damage-assessments/missing", "", "").Code)
}

func TestAnalyzeDamage(t *testing.T) {
	env := newTestEnv(t)
	env.damage.result = domain.DamageAssessment{ID: "d1", Status: domain.AssessmentCompleted, DamageLevel: domain.DamageModerate}

	rec := env.do(http.MethodPost, "/analyze-damage", `{"assessmentId":"d1","imageUrl":"http://img/house.jpg"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]any](t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "d1", env.damage.analyzed)

	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"bad body", `{}`, nil, http.StatusBadRequest},
		{"missing assessment", `{"assessmentId":"nope"}`, domain.ErrNotFound, http.StatusNotFound},
		{"already completed", `{"assessmentId":"d1"}`, domain.ErrInvalidTransition, http.StatusConflict},
		{"analyzer failure", `{"assessmentId":"d1"}`, errors.New("model unavailable"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env.damage.err = tc.err
			rec := env.do(http.MethodPost, "/analyze-damage", tc.body, "")
			assert.Equal(t, tc.want, rec.Code)
			body := decode[map[string]any](t, rec)
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["error"])
		})
	}
}
