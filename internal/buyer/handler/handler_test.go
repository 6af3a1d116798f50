package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"leadbook/internal/buyer/filter"
	"leadbook/internal/buyer/handler/mocks"
	"leadbook/internal/buyer/models"
	"leadbook/internal/buyer/validation"
	dErrors "leadbook/pkg/domain-errors"
	"leadbook/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type BuyerHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestBuyerHandlerSuite(t *testing.T) {
	suite.Run(t, new(BuyerHandlerSuite))
}

func (s *BuyerHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.router = chi.NewRouter()
	New(s.service, logger, nil, Guards{}).Register(s.router)
}

func (s *BuyerHandlerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router, req)
}

func (s *BuyerHandlerSuite) authed(req *http.Request) *http.Request {
	return testutil.WithUserID(req, "alice")
}

func sampleBuyer() *models.Buyer {
	return &models.Buyer{
		ID:        "b-1",
		FullName:  "Ravi Kumar",
		Phone:     "9876543210",
		City:      models.CityMohali,
		Status:    models.StatusNew,
		Tags:      []string{},
		OwnerID:   "alice",
		UpdatedAt: time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC),
	}
}

func (s *BuyerHandlerSuite) TestCreate() {
	s.Run("created", func() {
		s.service.EXPECT().
			Create(gomock.Any(), "alice", map[string]any{"fullName": "Ravi Kumar"}).
			Return(sampleBuyer(), nil)

		rr := s.do(s.authed(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/buyers", `{"fullName":"Ravi Kumar"}`)))

		s.Equal(http.StatusCreated, rr.Code)
		got := testutil.UnmarshalResponse[models.Buyer](s.T(), rr)
		s.Equal("b-1", got.ID)
	})

	s.Run("validation errors list fields", func() {
		var fe dErrors.FieldErrors
		fe.Add("fullName", validation.MsgFullNameTooShort)
		fe.Add("phone", validation.MsgPhoneInvalid)
		s.service.EXPECT().Create(gomock.Any(), "alice", gomock.Any()).Return(nil, dErrors.Validation(fe))

		rr := s.do(s.authed(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/buyers", `{"fullName":"R"}`)))

		resp := testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
		s.Equal(validation.MsgFullNameTooShort, resp.Description)
		s.Equal(validation.MsgPhoneInvalid, resp.FieldMessage("phone"))
	})

	s.Run("non-object body", func() {
		rr := s.do(s.authed(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/buyers", `["not","an","object"]`)))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("missing user", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/buyers", `{}`))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})
}

func (s *BuyerHandlerSuite) TestList() {
	page := &models.Page{Buyers: []*models.Buyer{sampleBuyer()}, Pagination: models.NewPagination(2, 10, 11)}

	s.Run("desc by default", func() {
		s.service.EXPECT().
			List(gomock.Any(), filter.Params{Search: "ravi", City: "MOHALI", Page: 2}, filter.OrderDesc).
			Return(page, nil)

		rr := s.do(s.authed(httptest.NewRequest(http.MethodGet, "/api/buyers?search=ravi&city=MOHALI&page=2", nil)))

		s.Equal(http.StatusOK, rr.Code)
		got := testutil.UnmarshalResponse[models.Page](s.T(), rr)
		s.Equal(models.Pagination{Page: 2, Limit: 10, Total: 11, Pages: 2}, got.Pagination)
		s.Len(got.Buyers, 1)
	})

	s.Run("filter route is ascending", func() {
		s.service.EXPECT().
			List(gomock.Any(), filter.Params{Status: "all", Page: 1}, filter.OrderAsc).
			Return(page, nil)

		rr := s.do(s.authed(httptest.NewRequest(http.MethodGet, "/api/buyers/filter?status=all", nil)))
		s.Equal(http.StatusOK, rr.Code)
	})
}

func (s *BuyerHandlerSuite) TestGet() {
	detail := &models.BuyerDetail{Buyer: sampleBuyer(), History: []*models.HistoryEntry{}}
	s.service.EXPECT().Get(gomock.Any(), "b-1").Return(detail, nil)
	s.service.EXPECT().Get(gomock.Any(), "nope").Return(nil, dErrors.New(dErrors.CodeNotFound, "buyer not found"))

	rr := s.do(s.authed(httptest.NewRequest(http.MethodGet, "/api/buyers/b-1", nil)))
	s.Equal(http.StatusOK, rr.Code)
	s.Equal("b-1", testutil.UnmarshalResponse[models.BuyerDetail](s.T(), rr).Buyer.ID)

	rr = s.do(s.authed(httptest.NewRequest(http.MethodGet, "/api/buyers/nope", nil)))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
}

func (s *BuyerHandlerSuite) TestUpdate() {
	s.Run("path id fills missing payload id", func() {
		s.service.EXPECT().
			Update(gomock.Any(), "alice", "b-1", gomock.Any()).
			DoAndReturn(func(_ context.Context, _, _ string, raw map[string]any) (*models.Buyer, error) {
				s.Equal("b-1", raw["id"])
				s.Equal("QUALIFIED", raw["status"])
				return sampleBuyer(), nil
			})

		rr := s.do(s.authed(testutil.NewJSONRequest(s.T(), http.MethodPatch, "/api/buyers/b-1",
			`{"status":"QUALIFIED","updatedAt":"2025-06-01T09:30:00Z"}`)))
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("conflict", func() {
		s.service.EXPECT().
			Update(gomock.Any(), "alice", "b-1", gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "buyer was modified by someone else; reload and try again"))

		rr := s.do(s.authed(testutil.NewJSONRequest(s.T(), http.MethodPatch, "/api/buyers/b-1", `{"updatedAt":"2020-01-01T00:00:00Z"}`)))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})

	s.Run("forbidden", func() {
		s.service.EXPECT().
			Update(gomock.Any(), "alice", "b-2", gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeForbidden, "only the owner can modify this buyer"))

		rr := s.do(s.authed(testutil.NewJSONRequest(s.T(), http.MethodPatch, "/api/buyers/b-2", `{}`)))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
	})
}

func (s *BuyerHandlerSuite) TestDelete() {
	s.service.EXPECT().Delete(gomock.Any(), "alice", "b-1").Return(nil).Times(2)

	for _, path := range []string{"/api/buyers/b-1", "/api/buyers/b-1/delete"} {
		rr := s.do(s.authed(httptest.NewRequest(http.MethodDelete, path, nil)))
		s.Equal(http.StatusOK, rr.Code)
		s.JSONEq(`{"success":true}`, rr.Body.String())
	}
}

func (s *BuyerHandlerSuite) TestInternalErrorsHideDetails() {
	s.service.EXPECT().Delete(gomock.Any(), "alice", "b-1").
		Return(dErrors.Wrap(errors.New("pq: connection refused"), dErrors.CodeInternal, "failed to delete buyer"))

	rr := s.do(s.authed(httptest.NewRequest(http.MethodDelete, "/api/buyers/b-1", nil)))
	resp := testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, "internal_error")
	s.Empty(resp.Description)
	s.NotContains(rr.Body.String(), "connection refused")
}

func (s *BuyerHandlerSuite) TestImport() {
	csvBody := "fullName,phone\nRavi Kumar,9876543210\n"
	result := &models.ImportResult{Success: true, Imported: 1, Errors: []string{}}

	s.Run("multipart upload", func() {
		s.service.EXPECT().ImportCSV(gomock.Any(), "alice", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, r io.Reader) (*models.ImportResult, error) {
				b, err := io.ReadAll(r)
				s.Require().NoError(err)
				s.Equal(csvBody, string(b))
				return result, nil
			})

		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("file", "leads.csv")
		s.Require().NoError(err)
		_, err = part.Write([]byte(csvBody))
		s.Require().NoError(err)
		s.Require().NoError(mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/buyers/import", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rr := s.do(s.authed(req))

		s.Equal(http.StatusOK, rr.Code)
		s.Equal(1, testutil.UnmarshalResponse[models.ImportResult](s.T(), rr).Imported)
	})

	s.Run("raw csv body", func() {
		s.service.EXPECT().ImportCSV(gomock.Any(), "alice", gomock.Any()).Return(result, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/buyers/import", bytes.NewBufferString(csvBody))
		req.Header.Set("Content-Type", "text/csv")
		rr := s.do(s.authed(req))
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("unsupported content type", func() {
		rr := s.do(s.authed(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/buyers/import", `{}`)))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}

func (s *BuyerHandlerSuite) TestExport() {
	s.service.EXPECT().ExportCSV(gomock.Any(), filter.Params{City: "MOHALI", Page: 1}, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ filter.Params, w io.Writer) error {
			_, err := io.WriteString(w, "fullName\nRavi Kumar\n")
			return err
		})

	rr := s.do(s.authed(httptest.NewRequest(http.MethodGet, "/api/buyers/export?city=MOHALI", nil)))

	s.Equal(http.StatusOK, rr.Code)
	s.Equal("text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	s.Contains(rr.Header().Get("Content-Disposition"), "buyers.csv")
	s.Equal("fullName\nRavi Kumar\n", rr.Body.String())
}

func TestGuardsAreApplied(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	deny := func(status int) Middleware {
		return func(http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			})
		}
	}
	passthrough := func(next http.Handler) http.Handler { return next }

	t.Run("auth guards every route", func(t *testing.T) {
		r := chi.NewRouter()
		New(svc, logger, nil, Guards{Auth: deny(http.StatusUnauthorized)}).Register(r)

		rr := testutil.DoRequest(r, httptest.NewRequest(http.MethodGet, "/api/buyers", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("create limit only on POST", func(t *testing.T) {
		r := chi.NewRouter()
		New(svc, logger, nil, Guards{Auth: passthrough, CreateLimit: deny(http.StatusTooManyRequests)}).Register(r)

		rr := testutil.DoRequest(r, httptest.NewRequest(http.MethodPost, "/api/buyers", nil))
		assert.Equal(t, http.StatusTooManyRequests, rr.Code)

		svc.EXPECT().Get(gomock.Any(), "b-1").Return(&models.BuyerDetail{Buyer: sampleBuyer()}, nil)
		req := testutil.WithUserID(httptest.NewRequest(http.MethodGet, "/api/buyers/b-1", nil), "alice")
		rr = testutil.DoRequest(r, req)
		require.Equal(t, http.StatusOK, rr.Code)
	})
}
