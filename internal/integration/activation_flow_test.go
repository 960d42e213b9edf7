package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
	"github.com/xuri/excelize/v2"

	"labelcli/internal/app"
	"labelcli/internal/config"
	"labelcli/internal/layout"
	"labelcli/internal/shared/testutil"
)

// ActivationFlowTestSuite drives the whole server from an unlicensed
// install to printed layouts
type ActivationFlowTestSuite struct {
	suite.Suite
	fixture *testutil.LicenseFixture
	cfg     *config.Config
	app     *app.Application
	server  *httptest.Server
	logs    *testutil.BufferedSlogHandler
}

func (s *ActivationFlowTestSuite) SetupTest() {
	s.fixture = testutil.NewLicenseFixture(s.T())
	s.cfg = s.fixture.Config(s.T())
	s.start()
}

func (s *ActivationFlowTestSuite) TearDownTest() {
	s.stop()
}

func (s *ActivationFlowTestSuite) start() {
	logger, logs := testutil.NewTestLogger(nil)
	a, err := app.New(s.cfg, logger)
	s.Require().NoError(err)
	a.WebSocketHub.Start()

	s.app = a
	s.logs = logs
	s.server = httptest.NewServer(a.Router)
}

func (s *ActivationFlowTestSuite) stop() {
	if s.server != nil {
		s.server.Close()
	}
	if s.app != nil {
		s.app.WebSocketHub.Stop()
	}
}

func (s *ActivationFlowTestSuite) do(method, path, contentType string, body io.Reader) (int, map[string]interface{}) {
	req, err := http.NewRequest(method, s.server.URL+path, body)
	s.Require().NoError(err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func (s *ActivationFlowTestSuite) postJSON(path string, v interface{}) (int, map[string]interface{}) {
	body, err := json.Marshal(v)
	s.Require().NoError(err)
	return s.do(http.MethodPost, path, "application/json", bytes.NewReader(body))
}

func (s *ActivationFlowTestSuite) activate(days int) map[string]interface{} {
	status, body := s.postJSON("/api/license/activate", map[string]string{
		"email": testutil.TestEmail,
		"key":   s.fixture.Key(testutil.TestEmail, days),
	})
	s.Require().Equal(http.StatusOK, status, body)
	return body
}

func (s *ActivationFlowTestSuite) TestCompleteFlow() {
	status, body := s.do(http.MethodGet, "/api/license/status", "", nil)
	s.Equal(http.StatusOK, status)
	s.Equal("unlicensed", body["license_status"])

	status, body = s.postJSON("/api/layout", map[string]interface{}{"text": "Jam"})
	s.Equal(http.StatusForbidden, status)
	s.Equal(float64(http.StatusForbidden), body["status"])

	body = s.activate(365)
	s.Equal(true, body["licensed"])
	s.Equal(float64(365), body["days_remaining"])
	s.Contains(body["message"], "Valid until")

	status, body = s.do(http.MethodGet, "/api/layout/settings", "", nil)
	s.Require().Equal(http.StatusOK, status)
	defaults := body["defaults"].(map[string]interface{})
	s.Equal(float64(3), defaults["lines_per_label"])

	names := []string{"Jam", "Honey", "Apricot", "", "Plum", "Quince"}
	status, body = s.postJSON("/api/layout", map[string]interface{}{"lines": names, "lines_per_label": 2})
	s.Require().Equal(http.StatusOK, status)
	pages := body["pages"].([]interface{})
	s.Require().Len(pages, 1)
	labels := pages[0].(map[string]interface{})["labels"].([]interface{})
	s.Len(labels, 3)

	status, body = s.postJSON("/api/layout/preview", map[string]interface{}{"lines": names, "lines_per_label": 2})
	s.Require().Equal(http.StatusOK, status)
	labels = body["labels"].([]interface{})
	s.Len(labels, 3)
	for _, l := range labels {
		s.Equal([]interface{}{"Jam", "Honey"}, l.(map[string]interface{})["lines"])
	}

	status, body = s.upload("labels.xlsx", s.workbook("Jam", "", "  Honey  ", "Plum"))
	s.Require().Equal(http.StatusOK, status)
	s.Equal(float64(3), body["count"])
	s.Equal([]interface{}{"Jam", "Honey", "Plum"}, body["lines"])

	testutil.AssertLogContains(s.T(), s.logs, slog.LevelInfo, "license activation succeeded")
}

func (s *ActivationFlowTestSuite) TestImportErrors() {
	s.activate(30)

	status, body := s.upload("empty.xlsx", s.workbook())
	s.Equal(http.StatusUnprocessableEntity, status)
	s.NotEmpty(body["type"])

	status, _ = s.upload("labels.ods", []byte("not a workbook"))
	s.Equal(http.StatusUnsupportedMediaType, status)
}

func (s *ActivationFlowTestSuite) TestLicenseLevels() {
	tests := []struct {
		days  int
		level string
	}{
		{days: 200, level: "active"},
		{days: 20, level: "warning"},
		{days: 5, level: "critical"},
		{days: 0, level: "critical"},
		{days: -1, level: "unlicensed"},
	}

	for _, tt := range tests {
		s.fixture.Write(s.T(), testutil.TestEmail, tt.days)
		status, body := s.do(http.MethodGet, "/api/license/status", "", nil)
		s.Equal(http.StatusOK, status)
		s.Equal(tt.level, body["license_status"], "days=%d", tt.days)
		if tt.days >= 0 {
			s.Equal(float64(tt.days), body["days_remaining"])
		}
	}
}

func (s *ActivationFlowTestSuite) TestCorruptLicenseIsUnlicensed() {
	for name, content := range testutil.CorruptLicenses() {
		s.fixture.WriteRaw(s.T(), content)

		status, body := s.do(http.MethodGet, "/api/license/status", "", nil)
		s.Equal(http.StatusOK, status, name)
		s.Equal("unlicensed", body["license_status"], name)

		status, _ = s.postJSON("/api/layout", map[string]interface{}{"text": "Jam"})
		s.Equal(http.StatusForbidden, status, name)
	}

	// activation overwrites the damaged file
	s.activate(365)
	status, _ := s.postJSON("/api/layout", map[string]interface{}{"text": "Jam"})
	s.Equal(http.StatusOK, status)
}

func (s *ActivationFlowTestSuite) TestRejectedActivations() {
	tests := []struct {
		name   string
		body   map[string]string
		status int
	}{
		{"wrong key", map[string]string{"email": testutil.TestEmail, "key": "0000-0000-0000-0000-0000-0000"}, http.StatusUnprocessableEntity},
		{"key for another email", map[string]string{"email": "bob@example.com", "key": s.fixture.Key(testutil.TestEmail, 365)}, http.StatusUnprocessableEntity},
		{"key beyond the window", map[string]string{"email": testutil.TestEmail, "key": s.fixture.Key(testutil.TestEmail, 800)}, http.StatusUnprocessableEntity},
		{"missing email", map[string]string{"key": s.fixture.Key(testutil.TestEmail, 365)}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		status, body := s.postJSON("/api/license/activate", tt.body)
		s.Equal(tt.status, status, tt.name)
		s.NotEmpty(body["type"], tt.name)
	}
	s.NoFileExists(s.fixture.Path)

	// keys are accepted in lower case and with surrounding spaces
	status, body := s.postJSON("/api/license/activate", map[string]string{
		"email": testutil.TestEmail,
		"key":   "  " + strings.ToLower(s.fixture.Key(testutil.TestEmail, 90)) + " ",
	})
	s.Equal(http.StatusOK, status)
	s.Equal(float64(90), body["days_remaining"])
}

func (s *ActivationFlowTestSuite) TestConcurrentActivationAttempts() {
	const workers = 8

	var wg sync.WaitGroup
	statuses := make([]int, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body, _ := json.Marshal(map[string]string{
				"email": testutil.TestEmail,
				"key":   s.fixture.Key(testutil.TestEmail, 100+i),
			})
			resp, err := http.Post(s.server.URL+"/api/license/activate", "application/json", bytes.NewReader(body))
			if err != nil {
				return
			}
			resp.Body.Close()
			statuses[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	for i, code := range statuses {
		s.Equal(http.StatusOK, code, "worker %d", i)
	}

	// the file holds one complete record whatever order the writes landed in
	status, body := s.do(http.MethodGet, "/api/license/status", "", nil)
	s.Equal(http.StatusOK, status)
	s.Equal("active", body["license_status"])
	s.GreaterOrEqual(body["days_remaining"], float64(100))
	s.Less(body["days_remaining"], float64(100+workers))
}

func (s *ActivationFlowTestSuite) TestLicenseSurvivesRestart() {
	s.activate(365)
	s.stop()
	s.start()

	status, body := s.do(http.MethodGet, "/api/license/status", "", nil)
	s.Equal(http.StatusOK, status)
	s.Equal("active", body["license_status"])

	status, _ = s.postJSON("/api/layout", map[string]interface{}{"text": "Jam"})
	s.Equal(http.StatusOK, status)
}

func (s *ActivationFlowTestSuite) TestPreviewSocket() {
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + config.WebSocketEndpoint

	_, resp, err := gorilla.DefaultDialer.Dial(url, nil)
	s.Require().Error(err, "the socket is gated")
	s.Equal(http.StatusForbidden, resp.StatusCode)

	s.activate(365)

	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	defer conn.Close()

	var msg struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	read := func() {
		s.Require().NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
		s.Require().NoError(conn.ReadJSON(&msg))
	}

	read()
	s.Equal("connection", msg.Type)

	s.Require().NoError(conn.WriteJSON(map[string]interface{}{
		"type":    "preview",
		"request": map[string]interface{}{"lines_per_label": 1, "left_column_extra": 3},
	}))
	read()
	s.Require().Equal("preview", msg.Type)

	var page layout.Page
	s.Require().NoError(json.Unmarshal(msg.Data, &page))
	s.Require().Len(page.Labels, 3)
	s.Greater(page.Labels[0].LeftPad, page.Labels[1].LeftPad, "column 1 carries the extra left padding")
	s.Equal(layout.SampleLines(1), page.Labels[0].Lines)
}

func (s *ActivationFlowTestSuite) workbook(values ...string) []byte {
	f := excelize.NewFile()
	defer f.Close()
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		s.Require().NoError(err)
		s.Require().NoError(f.SetCellValue("Sheet1", cell, v))
	}
	buf, err := f.WriteToBuffer()
	s.Require().NoError(err)
	return buf.Bytes()
}

func (s *ActivationFlowTestSuite) upload(filename string, content []byte) (int, map[string]interface{}) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	s.Require().NoError(err)
	_, err = part.Write(content)
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())
	return s.do(http.MethodPost, "/api/import", mw.FormDataContentType(), &buf)
}

func TestActivationFlow(t *testing.T) {
	suite.Run(t, new(ActivationFlowTestSuite))
}
