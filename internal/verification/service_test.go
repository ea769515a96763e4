package verification

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"jawara/internal/metrics"
	"jawara/internal/store/memstore"
	"jawara/pkg/types"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	nikBudi  = "3201234567890123"
	nikSiti  = "3201234567890456"
	nikFresh = "3201234567890999"
	adminID  = "admin-1"
)

var fixedNow = time.UnixMilli(1700000000000)

type fakeDocuments struct {
	uploaded []string
	err      error
}

func (f *fakeDocuments) UploadFile(ctx context.Context, path string, body io.Reader, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.uploaded = append(f.uploaded, path)
	return path, nil
}

func (f *fakeDocuments) GetPublicURL(path string) string {
	return "https://cdn.test/verification/" + path
}

type harness struct {
	svc     *Service
	store   *memstore.Store
	docs    *fakeDocuments
	metrics *metrics.Metrics
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	st := memstore.New()
	docs := &fakeDocuments{}
	m := metrics.New(prometheus.NewRegistry())

	svc := New(logger, st, st, st, docs, st,
		WithMetrics(m),
		WithClock(func() time.Time { return fixedNow }),
	)

	return &harness{svc: svc, store: st, docs: docs, metrics: m}
}

func (h *harness) account(t *testing.T, nama, email string) string {
	t.Helper()
	u := &types.User{Nama: nama, Email: email, Password: "x"}
	require.NoError(t, h.store.Create(context.Background(), u))
	return u.ID
}

func (h *harness) resident(t *testing.T, nik, nama string, owner string, status types.WargaStatus) {
	t.Helper()
	jk := types.LakiLaki
	w := &types.Warga{
		NIK:            nik,
		NamaWarga:      nama,
		JenisKelamin:   &jk,
		StatusDomisili: "Tetap",
		StatusHidup:    "Hidup",
	}
	if owner != "" {
		w.UserID = &owner
	}
	if status != types.WargaStatusUnset {
		w.SetStatus(status)
	}
	require.NoError(t, h.store.CreateWarga(context.Background(), w))
}

func (h *harness) warga(t *testing.T, nik string) *types.Warga {
	t.Helper()
	w, err := h.store.WargaByNIK(context.Background(), nik)
	require.NoError(t, err)
	return w
}

func (h *harness) request(t *testing.T, id string) *types.VerificationRequest {
	t.Helper()
	req, err := h.store.Request(context.Background(), id)
	require.NoError(t, err)
	return req
}

func ktp() *Document {
	return &Document{Filename: "ktp.jpg", ContentType: "image/jpeg", Data: []byte("jpeg")}
}

func TestSubmitNewRegistration(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := h.account(t, "Budi", "budi@example.com")

	res, err := h.svc.Submit(ctx, SubmitInput{
		UserID:        userID,
		NIKBaru:       nikBudi,
		NamaWargaBaru: "Budi",
		Document:      ktp(),
	})
	require.NoError(t, err)

	assert.Equal(t, KindRegistration, res.Shape.Kind)
	req := h.request(t, res.Request.ID)
	assert.Equal(t, types.VerificationStatusPending, req.Status)
	assert.Nil(t, req.WargaID)
	assert.True(t, req.ExtraData.IsNewRegistration)
	assert.False(t, req.ExtraData.IsAssignmentRequest)
	assert.Equal(t, nikBudi, req.NIKBaru)

	wantObject := "ktp/ktp-registration-" + userID + "-1700000000000.jpg"
	assert.Equal(t, []string{wantObject}, h.docs.uploaded)
	assert.Equal(t, "https://cdn.test/verification/"+wantObject, req.FotoKTP)

	// Registration does not create a resident before approval.
	_, err = h.store.WargaByNIK(ctx, nikBudi)
	assert.ErrorIs(t, err, types.ErrWargaNotFound)

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Submitted.WithLabelValues("registration")))
}

func TestSubmitUpdateMarksResidentPending(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := h.account(t, "Budi", "budi@example.com")
	h.resident(t, nikBudi, "Budi", userID, types.WargaStatusAccepted)

	res, err := h.svc.Submit(ctx, SubmitInput{
		UserID:        userID,
		NamaWargaBaru: "Budi Santoso",
		Document:      ktp(),
	})
	require.NoError(t, err)

	assert.Equal(t, KindUpdate, res.Shape.Kind)
	require.NotNil(t, res.Request.WargaID)
	assert.Equal(t, nikBudi, *res.Request.WargaID)
	assert.Equal(t, nikBudi, res.Request.NIKBaru, "nik defaults to the current one")
	assert.Equal(t, "Budi Santoso", res.Request.NamaWargaBaru)

	w := h.warga(t, nikBudi)
	assert.Equal(t, types.WargaStatusPending, w.CurrentStatus())
	assert.Equal(t, "Budi", w.NamaWarga, "identity is untouched until approval")
}

func TestSubmitSecondPendingIsConflict(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := h.account(t, "Budi", "budi@example.com")

	_, err := h.svc.Submit(ctx, SubmitInput{UserID: userID, NIKBaru: nikBudi, NamaWargaBaru: "Budi", Document: ktp()})
	require.NoError(t, err)

	_, err = h.svc.Submit(ctx, SubmitInput{UserID: userID, NIKBaru: nikSiti, NamaWargaBaru: "Budi", Document: ktp()})
	require.Error(t, err)
	assert.Equal(t, types.KindConflict, types.KindOf(err))

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	summary, ok := appErr.Details.(*PendingSummary)
	require.True(t, ok)
	assert.Equal(t, nikBudi, summary.NIK)

	mine, err := h.svc.Mine(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	assert.Len(t, h.docs.uploaded, 1, "refused submission uploads nothing")
}

func TestSubmitValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := h.account(t, "Budi", "budi@example.com")
	ownerID := h.account(t, "Siti", "siti@example.com")
	h.resident(t, nikSiti, "Siti", ownerID, types.WargaStatusAccepted)

	cases := []struct {
		name string
		in   SubmitInput
		msg  string
	}{
		{"bad nik", SubmitInput{UserID: userID, NIKBaru: "12345", NamaWargaBaru: "Budi", Document: ktp()}, "nik_baru must be 16 digits"},
		{"letters in nik", SubmitInput{UserID: userID, NIKBaru: "32012345678901ab", NamaWargaBaru: "Budi", Document: ktp()}, "nik_baru must be 16 digits"},
		{"missing image", SubmitInput{UserID: userID, NIKBaru: nikBudi, NamaWargaBaru: "Budi"}, "foto_ktp is required for verification"},
		{"not an image", SubmitInput{UserID: userID, NIKBaru: nikBudi, NamaWargaBaru: "Budi", Document: &Document{Filename: "a.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}}, "foto_ktp must be an image"},
		{"registration without name", SubmitInput{UserID: userID, NIKBaru: nikBudi, Document: ktp()}, "nik_baru and namaWarga_baru are required for a new registration"},
		{"bad gender", SubmitInput{UserID: userID, NIKBaru: nikBudi, NamaWargaBaru: "Budi", JenisKelamin: "L", Document: ktp()}, "jenisKelamin must be either Laki-laki or Perempuan"},
		{"update without fields", SubmitInput{UserID: ownerID, Document: ktp()}, "Please provide nik_baru or namaWarga_baru to update"},
		{"update with own nik", SubmitInput{UserID: ownerID, NIKBaru: nikSiti, Document: ktp()}, "nik_baru or namaWarga_baru must differ from the current data"},
		{"update with own nik and name", SubmitInput{UserID: ownerID, NIKBaru: nikSiti, NamaWargaBaru: "Siti", Document: ktp()}, "nik_baru or namaWarga_baru must differ from the current data"},
		{"update with own name", SubmitInput{UserID: ownerID, NamaWargaBaru: " Siti ", Document: ktp()}, "nik_baru or namaWarga_baru must differ from the current data"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.svc.Submit(ctx, tc.in)
			require.Error(t, err)
			assert.Equal(t, types.KindValidation, types.KindOf(err))

			var appErr *types.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tc.msg, appErr.Message)
		})
	}

	assert.Empty(t, h.docs.uploaded)
	assert.Equal(t, types.WargaStatusAccepted, h.warga(t, nikSiti).CurrentStatus())
	pending, err := h.store.PendingByUserID(ctx, ownerID)
	require.NoError(t, err)
	assert.Nil(t, pending)
}

// racingRequests behaves as if another request for the same account was
// inserted between the pending lookup and the insert.
type racingRequests struct {
	*memstore.Store
}

func (racingRequests) PendingByUserID(ctx context.Context, userID string) (*types.VerificationRequest, error) {
	return nil, nil
}

func (racingRequests) CreateRequest(ctx context.Context, req *types.VerificationRequest) error {
	return types.ErrPendingVerificationExist
}

func TestSubmitLosesPendingRace(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := h.account(t, "Budi", "budi@example.com")
	h.resident(t, nikBudi, "Budi", userID, types.WargaStatusAccepted)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	svc := New(logger, h.store, racingRequests{h.store}, h.store, h.docs, h.store,
		WithMetrics(h.metrics),
		WithClock(func() time.Time { return fixedNow }),
	)

	_, err := svc.Submit(ctx, SubmitInput{UserID: userID, NamaWargaBaru: "Budi Santoso", Document: ktp()})
	require.Error(t, err)
	assert.Equal(t, types.KindConflict, types.KindOf(err))

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, msgPendingExists, appErr.Message)
	assert.Nil(t, appErr.Details)

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Conflicts.WithLabelValues("pending_exists")))
	assert.Equal(t, types.WargaStatusAccepted, h.warga(t, nikBudi).CurrentStatus())
}

func TestSubmitDoesNotCheckNIKUniqueness(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ownerID := h.account(t, "Siti", "siti@example.com")
	h.resident(t, nikSiti, "Siti", ownerID, types.WargaStatusAccepted)
	userID := h.account(t, "Budi", "budi@example.com")

	res, err := h.svc.Submit(ctx, SubmitInput{UserID: userID, NIKBaru: nikSiti, NamaWargaBaru: "Budi", Document: ktp()})
	require.NoError(t, err)
	assert.Equal(t, KindRegistration, res.Shape.Kind)
	assert.Equal(t, types.VerificationStatusPending, res.Request.Status)
}

func TestSubmitUploadFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := h.account(t, "Budi", "budi@example.com")
	h.resident(t, nikBudi, "Budi", userID, types.WargaStatusAccepted)
	h.docs.err = errors.New("bucket unavailable")

	_, err := h.svc.Submit(ctx, SubmitInput{UserID: userID, NamaWargaBaru: "Budi S", Document: ktp()})
	require.Error(t, err)
	assert.Equal(t, types.KindUpstream, types.KindOf(err))

	all, err := h.svc.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Equal(t, types.WargaStatusAccepted, h.warga(t, nikBudi).CurrentStatus())
}

func TestSelfRegisterShapes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.resident(t, nikSiti, "Siti", "", types.WargaStatusUnset)
	userID := h.account(t, "Siti", "siti@example.com")

	in := SubmitInput{
		UserID:         userID,
		NIKBaru:        nikSiti,
		NamaWargaBaru:  "Siti",
		JenisKelamin:   string(types.Perempuan),
		StatusDomisili: "Tetap",
		StatusHidup:    "Hidup",
		Document:       ktp(),
	}

	res, err := h.svc.SelfRegister(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, KindAssignment, res.Shape.Kind)
	assert.True(t, res.Request.ExtraData.IsAssignmentRequest)
	assert.False(t, res.Request.ExtraData.IsNewRegistration)
	require.NotNil(t, res.Request.WargaID)
	assert.Equal(t, nikSiti, *res.Request.WargaID)
	assert.Contains(t, h.docs.uploaded[0], "ktp/ktp-assignment-"+userID+"-")
}

func TestSelfRegisterRequiresAllFields(t *testing.T) {
	h := newHarness(t)
	userID := h.account(t, "Budi", "budi@example.com")

	_, err := h.svc.SelfRegister(context.Background(), SubmitInput{
		UserID: userID, NIKBaru: nikBudi, NamaWargaBaru: "Budi", Document: ktp(),
	})
	require.Error(t, err)
	assert.Equal(t, types.KindValidation, types.KindOf(err))
}

func TestSelfRegisterConflicts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ownerID := h.account(t, "Siti", "siti@example.com")
	h.resident(t, nikSiti, "Siti", ownerID, types.WargaStatusAccepted)

	full := func(userID, nik string) SubmitInput {
		return SubmitInput{
			UserID: userID, NIKBaru: nik, NamaWargaBaru: "X",
			JenisKelamin: string(types.LakiLaki), StatusDomisili: "Tetap", StatusHidup: "Hidup",
			Document: ktp(),
		}
	}

	t.Run("account already has a resident", func(t *testing.T) {
		_, err := h.svc.SelfRegister(ctx, full(ownerID, nikFresh))
		require.Error(t, err)
		assert.Equal(t, types.KindConflict, types.KindOf(err))
	})

	t.Run("nik owned by another account", func(t *testing.T) {
		otherID := h.account(t, "Budi", "budi@example.com")
		_, err := h.svc.SelfRegister(ctx, full(otherID, nikSiti))
		require.Error(t, err)
		assert.Equal(t, types.KindConflict, types.KindOf(err))

		var appErr *types.AppError
		require.True(t, errors.As(err, &appErr))
		details, ok := appErr.Details.(*types.NIKConflict)
		require.True(t, ok)
		require.NotNil(t, details.User)
		assert.Equal(t, "siti@example.com", details.User.Email)
	})
}

func TestRequestNameChange(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := h.account(t, "Budi", "budi@example.com")
	h.resident(t, nikBudi, "Budi", userID, types.WargaStatusAccepted)

	res, err := h.svc.RequestNameChange(ctx, SubmitInput{
		UserID:        userID,
		NIKBaru:       nikFresh,
		NamaWargaBaru: "Budi Santoso",
		StatusHidup:   "Hidup",
		Document:      ktp(),
	})
	require.NoError(t, err)
	assert.Equal(t, KindUpdate, res.Shape.Kind)
	assert.Equal(t, nikBudi, res.Request.NIKBaru, "name changes keep the nik")
	require.NotNil(t, res.Request.ExtraData.StatusHidup)

	_, err = h.svc.RequestNameChange(ctx, SubmitInput{UserID: "nobody", NamaWargaBaru: "X", Document: ktp()})
	assert.Equal(t, types.KindNotFound, types.KindOf(err))
}

func TestApproveNewRegistration(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := h.account(t, "Budi", "budi@example.com")

	sub, err := h.svc.Submit(ctx, SubmitInput{
		UserID:        userID,
		NIKBaru:       nikBudi,
		NamaWargaBaru: "Budi",
		JenisKelamin:  string(types.LakiLaki),
		Document:      ktp(),
	})
	require.NoError(t, err)

	res, err := h.svc.Approve(ctx, sub.Request.ID, adminID)
	require.NoError(t, err)
	assert.Equal(t, KindRegistration, res.Shape.Kind)

	w := h.warga(t, nikBudi)
	assert.Equal(t, types.WargaStatusAccepted, w.CurrentStatus())
	assert.True(t, w.OwnedBy(userID))
	assert.Equal(t, "Budi", w.NamaWarga)
	require.NotNil(t, w.JenisKelamin)
	assert.Equal(t, types.LakiLaki, *w.JenisKelamin)

	req := h.request(t, sub.Request.ID)
	assert.Equal(t, types.VerificationStatusAccepted, req.Status)
	require.NotNil(t, req.VerifiedBy)
	assert.Equal(t, adminID, *req.VerifiedBy)
	require.NotNil(t, req.VerifiedAt)
	assert.True(t, req.VerifiedAt.Equal(fixedNow))

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Resolved.WithLabelValues("accepted")))
}

func TestApproveRegistrationNIKTaken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ownerID := h.account(t, "Siti", "siti@example.com")
	h.resident(t, nikSiti, "Siti", ownerID, types.WargaStatusAccepted)
	userID := h.account(t, "Budi", "budi@example.com")

	sub, err := h.svc.Submit(ctx, SubmitInput{UserID: userID, NIKBaru: nikSiti, NamaWargaBaru: "Budi", Document: ktp()})
	require.NoError(t, err)

	_, err = h.svc.Approve(ctx, sub.Request.ID, adminID)
	require.Error(t, err)
	assert.Equal(t, types.KindConflict, types.KindOf(err))

	assert.Equal(t, types.VerificationStatusPending, h.request(t, sub.Request.ID).Status)
	assert.True(t, h.warga(t, nikSiti).OwnedBy(ownerID))
}

func TestApproveAssignment(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.resident(t, nikSiti, "Siti Aminah", "", types.WargaStatusUnset)
	userID := h.account(t, "Siti", "siti@example.com")

	sub, err := h.svc.Submit(ctx, SubmitInput{UserID: userID, NIKBaru: nikSiti, NamaWargaBaru: "Siti A", Document: ktp()})
	require.NoError(t, err)
	require.Equal(t, KindAssignment, sub.Shape.Kind)

	res, err := h.svc.Approve(ctx, sub.Request.ID, adminID)
	require.NoError(t, err)
	assert.Equal(t, KindAssignment, res.Shape.Kind)

	w := h.warga(t, nikSiti)
	assert.Equal(t, types.WargaStatusAccepted, w.CurrentStatus())
	assert.True(t, w.OwnedBy(userID))
	assert.Equal(t, nikSiti, w.NIK)
	assert.Equal(t, "Siti Aminah", w.NamaWarga, "assignment keeps identity fields")
	assert.Equal(t, types.VerificationStatusAccepted, h.request(t, sub.Request.ID).Status)
}

func TestApproveUpdateNIKConflict(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	budiID := h.account(t, "Budi", "budi@example.com")
	sitiID := h.account(t, "Siti", "siti@example.com")
	h.resident(t, nikBudi, "Budi", budiID, types.WargaStatusAccepted)
	h.resident(t, nikSiti, "Siti", sitiID, types.WargaStatusAccepted)

	sub, err := h.svc.Submit(ctx, SubmitInput{UserID: budiID, NIKBaru: nikSiti, Document: ktp()})
	require.NoError(t, err)

	_, err = h.svc.Approve(ctx, sub.Request.ID, adminID)
	require.Error(t, err)
	assert.Equal(t, types.KindConflict, types.KindOf(err))

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Cannot approve: NIK already exists in the system", appErr.Message)
	details, ok := appErr.Details.(*types.NIKConflict)
	require.True(t, ok)
	assert.Equal(t, nikSiti, details.NIK)
	require.NotNil(t, details.User)
	assert.Equal(t, sitiID, details.User.ID)

	budi := h.warga(t, nikBudi)
	assert.Equal(t, "Budi", budi.NamaWarga)
	assert.Equal(t, types.WargaStatusPending, budi.CurrentStatus(), "still under review")
	siti := h.warga(t, nikSiti)
	assert.Equal(t, "Siti", siti.NamaWarga)
	assert.True(t, siti.OwnedBy(sitiID))
	assert.Equal(t, types.VerificationStatusPending, h.request(t, sub.Request.ID).Status)

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Conflicts.WithLabelValues("nik_taken")))
}

func TestApproveUpdateMovesNIK(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	budiID := h.account(t, "Budi", "budi@example.com")
	h.resident(t, nikBudi, "Budi", budiID, types.WargaStatusAccepted)

	head := nikBudi
	k := &types.Keluarga{NamaKeluarga: "Keluarga Budi", JumlahAnggota: 2, KepalaKeluargaID: &head}
	require.NoError(t, h.store.CreateKeluarga(ctx, k))

	sub, err := h.svc.Submit(ctx, SubmitInput{UserID: budiID, NIKBaru: nikFresh, NamaWargaBaru: "Budi Santoso", Document: ktp()})
	require.NoError(t, err)

	res, err := h.svc.Approve(ctx, sub.Request.ID, adminID)
	require.NoError(t, err)
	assert.Equal(t, nikBudi, res.OldNIK)

	_, err = h.store.WargaByNIK(ctx, nikBudi)
	assert.ErrorIs(t, err, types.ErrWargaNotFound)

	w := h.warga(t, nikFresh)
	assert.Equal(t, "Budi Santoso", w.NamaWarga)
	assert.Equal(t, types.WargaStatusAccepted, w.CurrentStatus())
	assert.True(t, w.OwnedBy(budiID))
	assert.Equal(t, "Tetap", w.StatusDomisili, "other fields carry over")

	assert.Equal(t, types.VerificationStatusAccepted, h.request(t, sub.Request.ID).Status)

	household, err := h.store.Keluarga(ctx, k.ID)
	require.NoError(t, err)
	require.NotNil(t, household.KepalaKeluargaID)
	assert.Equal(t, nikFresh, *household.KepalaKeluargaID)
}

func TestApproveUpdateSameNIK(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	budiID := h.account(t, "Budi", "budi@example.com")
	h.resident(t, nikBudi, "Budi", budiID, types.WargaStatusAccepted)

	sub, err := h.svc.RequestNameChange(ctx, SubmitInput{
		UserID: budiID, NamaWargaBaru: "Budi Santoso", StatusDomisili: "Kontrak", Document: ktp(),
	})
	require.NoError(t, err)

	_, err = h.svc.Approve(ctx, sub.Request.ID, adminID)
	require.NoError(t, err)

	w := h.warga(t, nikBudi)
	assert.Equal(t, "Budi Santoso", w.NamaWarga)
	assert.Equal(t, "Kontrak", w.StatusDomisili)
	assert.Equal(t, types.WargaStatusAccepted, w.CurrentStatus())
}

func TestRejectThenResolveAgain(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	budiID := h.account(t, "Budi", "budi@example.com")
	h.resident(t, nikBudi, "Budi", budiID, types.WargaStatusAccepted)

	sub, err := h.svc.Submit(ctx, SubmitInput{UserID: budiID, NamaWargaBaru: "Budi S", Document: ktp()})
	require.NoError(t, err)

	res, err := h.svc.Reject(ctx, sub.Request.ID, adminID, "")
	require.NoError(t, err)
	assert.Equal(t, "Verification request rejected and warga status updated", res.Message)

	req := h.request(t, sub.Request.ID)
	assert.Equal(t, types.VerificationStatusRejected, req.Status)
	require.NotNil(t, req.VerifiedBy)
	assert.Equal(t, adminID, *req.VerifiedBy)

	w := h.warga(t, nikBudi)
	assert.Equal(t, types.WargaStatusRejected, w.CurrentStatus())
	assert.Equal(t, "Budi", w.NamaWarga)

	_, err = h.svc.Reject(ctx, sub.Request.ID, adminID, "again")
	assert.Equal(t, types.KindConflict, types.KindOf(err))
	_, err = h.svc.Approve(ctx, sub.Request.ID, adminID)
	assert.Equal(t, types.KindConflict, types.KindOf(err))

	// A settled account may file a new request.
	_, err = h.svc.Submit(ctx, SubmitInput{UserID: budiID, NamaWargaBaru: "Budi Santoso", Document: ktp()})
	require.NoError(t, err)
	assert.Equal(t, types.WargaStatusPending, h.warga(t, nikBudi).CurrentStatus())
}

func TestRejectEchoesReason(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := h.account(t, "Budi", "budi@example.com")

	sub, err := h.svc.Submit(ctx, SubmitInput{UserID: userID, NIKBaru: nikBudi, NamaWargaBaru: "Budi", Document: ktp()})
	require.NoError(t, err)

	res, err := h.svc.Reject(ctx, sub.Request.ID, adminID, "KTP photo is blurry")
	require.NoError(t, err)
	assert.Equal(t, "KTP photo is blurry", res.Message)
}

func TestResolveUnknownRequest(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Approve(ctx, "missing", adminID)
	assert.Equal(t, types.KindNotFound, types.KindOf(err))
	_, err = h.svc.Reject(ctx, "missing", adminID, "")
	assert.Equal(t, types.KindNotFound, types.KindOf(err))
}

func TestGetAccess(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ownerID := h.account(t, "Budi", "budi@example.com")

	sub, err := h.svc.Submit(ctx, SubmitInput{UserID: ownerID, NIKBaru: nikBudi, NamaWargaBaru: "Budi", Document: ktp()})
	require.NoError(t, err)

	_, err = h.svc.Get(ctx, sub.Request.ID, ownerID, types.RoleWarga)
	assert.NoError(t, err)
	_, err = h.svc.Get(ctx, sub.Request.ID, "someone-else", types.RoleKetuaRT)
	assert.NoError(t, err)
	_, err = h.svc.Get(ctx, sub.Request.ID, "someone-else", types.RoleWarga)
	assert.Equal(t, types.KindForbidden, types.KindOf(err))
	_, err = h.svc.Get(ctx, "missing", ownerID, types.RoleWarga)
	assert.Equal(t, types.KindNotFound, types.KindOf(err))
}

func TestQueriesNewestFirst(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	first := h.account(t, "A", "a@example.com")
	second := h.account(t, "B", "b@example.com")

	a, err := h.svc.Submit(ctx, SubmitInput{UserID: first, NIKBaru: nikBudi, NamaWargaBaru: "A", Document: ktp()})
	require.NoError(t, err)
	b, err := h.svc.Submit(ctx, SubmitInput{UserID: second, NIKBaru: nikSiti, NamaWargaBaru: "B", Document: ktp()})
	require.NoError(t, err)
	_, err = h.svc.Reject(ctx, a.Request.ID, adminID, "")
	require.NoError(t, err)

	all, err := h.svc.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, b.Request.ID, all[0].ID)

	pending, err := h.svc.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, b.Request.ID, pending[0].ID)
}
