package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/CodecEval/internal/rd"
)

func frontMeasurements() []FrontMeasurement {
	base := rd.NewCodecConfig("mozjpeg", "4.1").WithParam("subsampling", rd.TextParam("420"))
	m := func(q int64, bpp, s2, ba float64) FrontMeasurement {
		return FrontMeasurement{Bpp: bpp, Ssimulacra2: s2, Butteraugli: ba, Config: base.WithParam("quality", rd.IntParam(q))}
	}
	return []FrontMeasurement{
		m(50, 0.5, 60, 3.0),
		m(80, 1.0, 75, 1.9),
		m(75, 1.2, 70, 2.2), // dominated by q80
		m(95, 2.5, 90, 0.9),
	}
}

func createFront(t *testing.T, router http.Handler, body interface{}) FrontResponse {
	t.Helper()
	w := doRequest(t, router, "POST", "/api/v1/fronts", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp FrontResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestCreateAndGetFront(t *testing.T) {
	router, _ := setupTestRouter()

	created := createFront(t, router, CreateFrontRequest{Measurements: frontMeasurements()})
	assert.Nil(t, created.CalibrationID)
	require.Len(t, created.Front.Points, 3)
	assert.Len(t, created.Coverage, 18)
	covered := 0
	for _, c := range created.Coverage {
		covered += c.Count
	}
	assert.Equal(t, 3, covered)
	assert.Len(t, created.EmptyBins, 18-3)

	w := doRequest(t, router, "GET", "/api/v1/fronts/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got FrontResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "mozjpeg@4.1 [quality=80, subsampling=420]", got.Front.Points[1].Config.Fingerprint())
}

func TestCreateFrontWithStoredCalibrationAndFineBins(t *testing.T) {
	router, _ := setupTestRouter()

	w := doRequest(t, router, "POST", "/api/v1/calibrations", testAggregate())
	require.Equal(t, http.StatusCreated, w.Code)
	var cal CalibrationResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&cal))

	req := CreateFrontRequest{Measurements: frontMeasurements(), Bins: 36}
	req.ID = cal.ID.String()
	created := createFront(t, router, req)
	require.NotNil(t, created.CalibrationID)
	assert.Equal(t, cal.ID, *created.CalibrationID)
	assert.Equal(t, "unit", created.Front.Calibration.Corpus)
	assert.Len(t, created.Coverage, 36)
}

func TestCreateFrontWithLatestCalibration(t *testing.T) {
	router, _ := setupTestRouter()

	w := doRequest(t, router, "POST", "/api/v1/calibrations", testAggregate())
	require.Equal(t, http.StatusCreated, w.Code)
	var cal CalibrationResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&cal))

	req := CreateFrontRequest{Measurements: frontMeasurements()}
	req.Codec, req.Corpus = "mozjpeg", "unit"
	created := createFront(t, router, req)
	require.NotNil(t, created.CalibrationID)
	assert.Equal(t, cal.ID, *created.CalibrationID)

	req.Corpus = "clic"
	w = doRequest(t, router, "POST", "/api/v1/fronts", req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	req.Corpus = ""
	w = doRequest(t, router, "POST", "/api/v1/fronts", req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateFrontBadRequests(t *testing.T) {
	router, _ := setupTestRouter()

	w := doRequest(t, router, "POST", "/api/v1/fronts", CreateFrontRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	bad := frontMeasurements()
	bad[0].Config.Codec = ""
	w = doRequest(t, router, "POST", "/api/v1/fronts", CreateFrontRequest{Measurements: bad})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, router, "POST", "/api/v1/fronts", CreateFrontRequest{Measurements: frontMeasurements(), Bins: -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := CreateFrontRequest{Measurements: frontMeasurements()}
	req.ID = uuid.NewString()
	w = doRequest(t, router, "POST", "/api/v1/fronts", req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBestConfig(t *testing.T) {
	router, _ := setupTestRouter()
	created := createFront(t, router, CreateFrontRequest{Measurements: frontMeasurements()})
	base := "/api/v1/fronts/" + created.ID.String() + "/best"

	w := doRequest(t, router, "GET", base+"?min_s2=70", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp BestResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.NotNil(t, resp.MinS2)
	assert.Equal(t, int64(80), resp.MinS2.Config.Params["quality"].Int)
	assert.Nil(t, resp.MaxBa)

	w = doRequest(t, router, "GET", base+"?max_ba=2&max_bpp=0.6", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = BestResponse{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.NotNil(t, resp.MaxBa)
	assert.Equal(t, int64(80), resp.MaxBa.Config.Params["quality"].Int)
	require.NotNil(t, resp.MaxBpp)
	assert.Equal(t, int64(50), resp.MaxBpp.Config.Params["quality"].Int)

	w = doRequest(t, router, "GET", base+"?min_s2=99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, router, "GET", base, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, router, "GET", base+"?min_s2=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFrontChart(t *testing.T) {
	router, _ := setupTestRouter()
	created := createFront(t, router, CreateFrontRequest{Measurements: frontMeasurements()})

	w := doRequest(t, router, "GET", "/api/v1/fronts/"+created.ID.String()+"/chart.html", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "mozjpeg")
}

func TestGetFrontErrors(t *testing.T) {
	router, _ := setupTestRouter()

	w := doRequest(t, router, "GET", "/api/v1/fronts/xyz", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, router, "GET", "/api/v1/fronts/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	ms := new(MockStore)
	ms.On("GetFront", mock.Anything, mock.Anything).Return(nil, assert.AnError)
	w = doRequest(t, setupRouter(ms), "GET", "/api/v1/fronts/"+uuid.NewString()+"/best?min_s2=1", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	ms.AssertExpectations(t)
}
