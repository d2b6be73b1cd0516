package bug

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"issue-tracker/internal/common/errs"
	"issue-tracker/internal/config"
	"issue-tracker/internal/credential"
	"issue-tracker/internal/features/audit"
	"issue-tracker/internal/features/permission"
	"issue-tracker/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type grantsByUser map[primitive.ObjectID]permission.Set

func (g grantsByUser) ResolveUser(_ context.Context, id primitive.ObjectID) (permission.Set, error) {
	set, ok := g[id]
	if !ok {
		return nil, errs.NotFound("user not found")
	}
	return set, nil
}

type apiFixture struct {
	app    *fiber.App
	creds  *credential.Service
	grants grantsByUser
	repo   *memoryBugs
	edits  *memoryEdits
	users  knownUsers
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	cfg := &config.Config{JWTSecret: "api-test", JWTIssuer: "issue-tracker", TokenTTL: time.Hour, PermissionPolicy: config.PolicyResolve}
	log := zap.NewNop()
	creds := credential.NewService(cfg)
	grants := grantsByUser{}
	repo := newMemoryBugs()
	edits := &memoryEdits{}
	users := knownUsers{}

	svc := NewBugService(repo, users, audit.NewRecorder(audit.NewAuditService(edits), log))
	ctrl := NewBugController(svc, NewExporter(repo), log)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(errs.HTTPStatus(err)).JSON(fiber.Map{"error": errs.PublicMessage(err)})
		},
	})
	NewBugApi(ctrl, middleware.NewAuthenticator(creds, log), middleware.NewGate(grants, cfg, log)).Setup(app)

	return &apiFixture{app: app, creds: creds, grants: grants, repo: repo, edits: edits, users: users}
}

// login registers a caller with the given permissions and returns its token.
func (f *apiFixture) login(t *testing.T, perms ...permission.Permission) (primitive.ObjectID, string) {
	t.Helper()
	id := primitive.NewObjectID()
	f.grants[id] = permission.NewSet(perms...)
	f.users[id] = true
	tok, _, err := f.creds.Issue(credential.Identity{UserID: id, Email: id.Hex() + "@example.com", FullName: "User " + id.Hex()[:4]})
	require.NoError(t, err)
	return id, tok
}

func (f *apiFixture) do(t *testing.T, method, path, token, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: credential.CookieName, Value: token})
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

const newBugBody = `{"title":"Crash","description":"App crashes","stepsToReproduce":"Open it"}`

func TestCreateWithoutPermissionIsForbidden(t *testing.T) {
	f := newAPIFixture(t)
	_, tok := f.login(t, permission.ViewData)

	status, body := f.do(t, "POST", "/api/bugs/new", tok, newBugBody)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.NotEmpty(t, body["error"])
	assert.Empty(t, f.repo.bugs)
	assert.Empty(t, f.edits.edits)
}

func TestUnauthenticatedRequestsAre401(t *testing.T) {
	f := newAPIFixture(t)
	status, _ := f.do(t, "GET", "/api/bugs/list", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	expired := credential.NewService(&config.Config{JWTSecret: "api-test", JWTIssuer: "issue-tracker", TokenTTL: -time.Minute})
	tok, _, err := expired.Issue(credential.Identity{UserID: primitive.NewObjectID()})
	require.NoError(t, err)
	status, body := f.do(t, "POST", "/api/bugs/new", tok, newBugBody)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", body["error"])
}

func TestBugLifecycleOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	_, reporter := f.login(t, permission.ViewData, permission.CreateBug, permission.EditMyBug)
	devID, dev := f.login(t, permission.ViewData, permission.EditIfAssignedTo)
	_, pm := f.login(t, permission.ViewData, permission.CloseAnyBug)

	status, body := f.do(t, "POST", "/api/bugs/new", reporter, newBugBody)
	require.Equal(t, fiber.StatusCreated, status)
	bugID := body["bugId"].(string)
	base := "/api/bugs/" + bugID

	// The reporter owns the bug, so canEditMyBug is enough to classify and assign it.
	status, _ = f.do(t, "PUT", base+"/classify", reporter, `{"classification":"High"}`)
	assert.Equal(t, fiber.StatusOK, status)

	// Not yet assigned: the developer's assignee-only grant does not apply.
	status, _ = f.do(t, "PUT", base, dev, `{"title":"Crash on launch"}`)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = f.do(t, "PUT", base+"/assign", reporter, `{"assignedToUserId":"`+devID.Hex()+`","assignedToUserName":"Dev"}`)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = f.do(t, "PUT", base, dev, `{"title":"Crash on launch"}`)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = f.do(t, "PUT", base+"/close", dev, `{"closed":true}`)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = f.do(t, "PUT", base+"/close", pm, `{"closed":true}`)
	assert.Equal(t, fiber.StatusOK, status)

	status, body = f.do(t, "GET", base, pm, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Crash on launch", body["title"])
	assert.Equal(t, "High", body["classification"])
	assert.Equal(t, true, body["closed"])

	id, err := primitive.ObjectIDFromHex(bugID)
	require.NoError(t, err)
	assert.Len(t, f.edits.forBug(id), 5)
}

func TestBugRoutesErrors(t *testing.T) {
	f := newAPIFixture(t)
	_, tok := f.login(t, permission.ViewData, permission.CreateBug, permission.EditAnyBug, permission.DeleteTestCase, permission.CloseAnyBug)

	status, _ := f.do(t, "GET", "/api/bugs/not-an-id", tok, "")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = f.do(t, "GET", "/api/bugs/"+primitive.NewObjectID().Hex(), tok, "")
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = f.do(t, "POST", "/api/bugs/new", tok, `{"title":""}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body := f.do(t, "POST", "/api/bugs/new", tok, newBugBody)
	require.Equal(t, fiber.StatusCreated, status)
	base := "/api/bugs/" + body["bugId"].(string)

	status, _ = f.do(t, "DELETE", base+"/test/"+primitive.NewObjectID().Hex(), tok, "")
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = f.do(t, "PUT", base+"/close", tok, `{}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = f.do(t, "PUT", base+"/assign", tok, `{"assignedToUserId":"`+primitive.NewObjectID().Hex()+`","assignedToUserName":"x"}`)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestListAndSubResourcesOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	_, tok := f.login(t, permission.ViewData, permission.CreateBug, permission.AddComments, permission.AddTestCase, permission.EditTestCase)

	status, body := f.do(t, "POST", "/api/bugs/new", tok, newBugBody)
	require.Equal(t, fiber.StatusCreated, status)
	base := "/api/bugs/" + body["bugId"].(string)

	status, _ = f.do(t, "POST", base+"/comment/new", tok, `{"comment":"seen it too"}`)
	assert.Equal(t, fiber.StatusCreated, status)

	status, body = f.do(t, "PUT", base+"/test/new", tok, `{"version":"1.2.3"}`)
	require.Equal(t, fiber.StatusCreated, status)
	testID := body["testCase"].(map[string]any)["testId"].(string)

	status, body = f.do(t, "PUT", base+"/test/"+testID, tok, `{"passed":false}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, body["testCase"].(map[string]any)["passed"])

	status, body = f.do(t, "GET", "/api/bugs/list?sortBy=title&closed=false", tok, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, body["total"])

	status, _ = f.do(t, "GET", "/api/bugs/list?closed=maybe", tok, "")
	assert.Equal(t, fiber.StatusBadRequest, status)

	req := httptest.NewRequest("GET", "/api/bugs/export", nil)
	_, exporter := f.login(t, permission.ViewData)
	req.AddCookie(&http.Cookie{Name: credential.CookieName, Value: exporter})
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".xlsx")
}
