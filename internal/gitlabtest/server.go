// Package gitlabtest provides an in-process fake of the GitLab REST API
// for tests and examples.
package gitlabtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/fivetwenty-io/gitlab-client/internal/constants"
)

// APIPrefix is the path prefix the fake serves under.
const APIPrefix = "/api/v4"

// Fixture values seeded into every server.
const (
	ProjectID       = 1
	ProjectPath     = "group/demo"
	BlobSHA         = "7d70e02340bac451f281cecf0a980907974bd8be"
	BlobContent     = "# demo\n\nA demo project.\n"
	DefaultBranch   = "main"
	CurrentUsername = "root"
	ServerVersion   = "17.5.0"
)

// Server is a fake GitLab API. It is safe for concurrent use.
type Server struct {
	*httptest.Server

	mutex              sync.Mutex
	token              string
	allowIssueDeletion bool

	projects   map[int]map[string]any
	issues     map[int][]map[string]any
	milestones map[int][]map[string]any
	users      []map[string]any
	branches   []map[string]any
	tree       []map[string]any
	blobs      map[string][]byte

	nextProjectID   int
	nextIssueID     int
	nextMilestoneID int
}

// Option configures a Server.
type Option func(*Server)

// WithToken makes the server reject requests without this private token.
func WithToken(token string) Option {
	return func(s *Server) {
		s.token = token
	}
}

// WithIssueDeletion lets the fake delete issues. Without it deletions are
// forbidden, as they are for non-admin GitLab users.
func WithIssueDeletion() Option {
	return func(s *Server) {
		s.allowIssueDeletion = true
	}
}

// NewServer starts a seeded fake. Callers must Close it.
func NewServer(opts ...Option) *Server {
	server := &Server{
		projects:        make(map[int]map[string]any),
		issues:          make(map[int][]map[string]any),
		milestones:      make(map[int][]map[string]any),
		blobs:           make(map[string][]byte),
		nextProjectID:   1,
		nextIssueID:     100,
		nextMilestoneID: 500,
	}

	for _, opt := range opts {
		opt(server)
	}

	server.seed()
	server.Server = httptest.NewServer(server.routes())

	return server
}

// APIURL returns the API base URL, including the prefix.
func (s *Server) APIURL() string {
	return s.URL + APIPrefix
}

func (s *Server) routes() http.Handler {
	router := chi.NewRouter()

	router.Route(APIPrefix, func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/version", s.getVersion)
		r.Get("/user", s.getCurrentUser)

		r.Get("/users", s.listUsers)
		r.Get("/users/{id}", s.getUser)

		r.Get("/projects", s.listProjects)
		r.Post("/projects", s.createProject)

		r.Route("/projects/{id}", func(r chi.Router) {
			r.Get("/", s.getProject)
			r.Put("/", s.updateProject)
			r.Delete("/", s.deleteProject)

			r.Get("/issues", s.listIssues)
			r.Post("/issues", s.createIssue)
			r.Get("/issues/{issue_id}", s.getIssue)
			r.Put("/issues/{issue_id}", s.updateIssue)
			r.Delete("/issues/{issue_id}", s.deleteIssue)

			r.Get("/milestones", s.listMilestones)
			r.Post("/milestones", s.createMilestone)
			r.Get("/milestones/{milestone_id}", s.getMilestone)
			r.Put("/milestones/{milestone_id}", s.updateMilestone)

			r.Get("/repository/blobs/{sha}", s.getBlob)
			r.Get("/repository/tree", s.getTree)
			r.Get("/repository/branches", s.listBranches)
			r.Get("/repository/branches/{branch}", s.getBranch)
		})
	})

	router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, "404 Not Found")
	})

	return router
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" && r.Header.Get(constants.HeaderPrivateToken) != s.token {
			writeMessage(w, http.StatusUnauthorized, "401 Unauthorized")

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) seed() {
	for _, name := range []string{"demo", "tools", "docs"} {
		id := s.nextProjectID
		s.nextProjectID++

		s.projects[id] = map[string]any{
			"id":                  id,
			"name":                name,
			"path":                name,
			"path_with_namespace": "group/" + name,
			"default_branch":      DefaultBranch,
			"visibility":          "private",
			"description":         "",
			"web_url":             "https://gitlab.example.com/group/" + name,
		}
	}

	s.users = []map[string]any{
		{"id": 1, "username": CurrentUsername, "name": "Administrator", "state": "active"},
		{"id": 2, "username": "developer", "name": "Developer", "state": "active"},
	}

	s.branches = []map[string]any{
		{"name": DefaultBranch, "default": true, "protected": true, "commit": map[string]any{"id": BlobSHA}},
		{"name": "feature", "default": false, "protected": false, "commit": map[string]any{"id": BlobSHA}},
	}

	s.tree = []map[string]any{
		{"id": BlobSHA, "name": "README.md", "type": "blob", "path": "README.md", "mode": "100644"},
		{"id": "a1e8f8d745cc87e3a9248358d9352bb7f9a0aeba", "name": "src", "type": "tree", "path": "src", "mode": "040000"},
	}

	s.blobs[BlobSHA] = []byte(BlobContent)
}

func (s *Server) getVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"version": ServerVersion, "revision": "6fbd0f9cf3b"})
}

func (s *Server) getCurrentUser(w http.ResponseWriter, _ *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	writeJSON(w, http.StatusOK, s.users[0])
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	writePage(w, r, s.users)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	for _, user := range s.users {
		if user["id"] == id {
			writeJSON(w, http.StatusOK, user)

			return
		}
	}

	writeMessage(w, http.StatusNotFound, "404 User Not Found")
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	ids := make([]int, 0, len(s.projects))
	for id := range s.projects {
		ids = append(ids, id)
	}

	sort.Ints(ids)

	projects := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		projects = append(projects, s.projects[id])
	}

	writePage(w, r, projects)
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	name, _ := body["name"].(string)
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message": map[string]any{"name": []string{"can't be blank"}},
		})

		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	id := s.nextProjectID
	s.nextProjectID++

	project := map[string]any{
		"id":                  id,
		"name":                name,
		"path":                name,
		"path_with_namespace": "group/" + name,
		"default_branch":      DefaultBranch,
		"visibility":          stringOr(body["visibility"], "private"),
		"description":         stringOr(body["description"], ""),
	}
	s.projects[id] = project

	writeJSON(w, http.StatusCreated, project)
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	project, ok := s.project(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "404 Project Not Found")

		return
	}

	writeJSON(w, http.StatusOK, project)
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	project, ok := s.project(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "404 Project Not Found")

		return
	}

	for _, key := range []string{"name", "description", "visibility", "default_branch"} {
		if value, present := body[key]; present {
			project[key] = value
		}
	}

	writeJSON(w, http.StatusOK, project)
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	project, ok := s.project(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "404 Project Not Found")

		return
	}

	delete(s.projects, project["id"].(int))

	writeMessage(w, http.StatusAccepted, "202 Accepted")
}

func (s *Server) listIssues(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	project, ok := s.project(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "404 Project Not Found")

		return
	}

	state := r.URL.Query().Get("state")

	issues := make([]map[string]any, 0)

	for _, issue := range s.issues[project["id"].(int)] {
		if state == "" || state == "all" || issue["state"] == state {
			issues = append(issues, issue)
		}
	}

	writePage(w, r, issues)
}

func (s *Server) createIssue(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	project, ok := s.project(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "404 Project Not Found")

		return
	}

	title, _ := body["title"].(string)
	if title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": map[string]any{"title": []string{"can't be blank"}}})

		return
	}

	projectID := project["id"].(int)
	issues := s.issues[projectID]

	issue := map[string]any{
		"id":          s.nextIssueID,
		"iid":         len(issues) + 1,
		"project_id":  projectID,
		"title":       title,
		"description": stringOr(body["description"], ""),
		"state":       constants.StateOpened,
		"labels":      labels(body["labels"]),
	}
	s.nextIssueID++
	s.issues[projectID] = append(issues, issue)

	writeJSON(w, http.StatusCreated, issue)
}

func (s *Server) getIssue(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, issue, ok := s.issue(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "404 Issue Not Found")

		return
	}

	writeJSON(w, http.StatusOK, issue)
}

func (s *Server) updateIssue(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, issue, ok := s.issue(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "404 Issue Not Found")

		return
	}

	for _, key := range []string{"title", "description"} {
		if value, present := body[key]; present {
			issue[key] = value
		}
	}

	if value, present := body["labels"]; present {
		issue["labels"] = labels(value)
	}

	switch body["state_event"] {
	case constants.StateEventClose:
		issue["state"] = constants.StateClosed
	case constants.StateEventReopen:
		issue["state"] = constants.StateOpened
	}

	writeJSON(w, http.StatusOK, issue)
}

func (s *Server) deleteIssue(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	projectID, issue, ok := s.issue(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "404 Issue Not Found")

		return
	}

	if !s.allowIssueDeletion {
		writeMessage(w, http.StatusForbidden, "403 Forbidden")

		return
	}

	remaining := make([]map[string]any, 0, len(s.issues[projectID]))

	for _, candidate := range s.issues[projectID] {
		if candidate["iid"] != issue["iid"] {
			remaining = append(remaining, candidate)
		}
	}

	s.issues[projectID] = remaining

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listMilestones(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	project, ok := s.project(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "404 Project Not Found")

		return
	}

	milestones := s.milestones[project["id"].(int)]
	if milestones == nil {
		milestones = []map[string]any{}
	}

	writePage(w, r, milestones)
}

func (s *Server) createMilestone(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	project, ok := s.project(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "404 Project Not Found")

		return
	}

	title, _ := body["title"].(string)
	if title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": map[string]any{"title": []string{"can't be blank"}}})

		return
	}

	projectID := project["id"].(int)
	milestone := map[string]any{
		"id":          s.nextMilestoneID,
		"iid":         len(s.milestones[projectID]) + 1,
		"project_id":  projectID,
		"title":       title,
		"description": stringOr(body["description"], ""),
		"state":       "active",
	}
	s.nextMilestoneID++
	s.milestones[projectID] = append(s.milestones[projectID], milestone)

	writeJSON(w, http.StatusCreated, milestone)
}

func (s *Server) getMilestone(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	milestone, ok := s.milestone(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "404 Milestone Not Found")

		return
	}

	writeJSON(w, http.StatusOK, milestone)
}

func (s *Server) updateMilestone(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	milestone, ok := s.milestone(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "404 Milestone Not Found")

		return
	}

	for _, key := range []string{"title", "description"} {
		if value, present := body[key]; present {
			milestone[key] = value
		}
	}

	switch body["state_event"] {
	case constants.StateEventClose:
		milestone["state"] = constants.StateClosed
	case "activate":
		milestone["state"] = "active"
	}

	writeJSON(w, http.StatusOK, milestone)
}

func (s *Server) getBlob(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.project(r); !ok {
		writeMessage(w, http.StatusNotFound, "404 Project Not Found")

		return
	}

	content, ok := s.blobs[chi.URLParam(r, "sha")]
	if !ok {
		writeMessage(w, http.StatusNotFound, "404 Blob Not Found")

		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func (s *Server) getTree(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.project(r); !ok {
		writeMessage(w, http.StatusNotFound, "404 Project Not Found")

		return
	}

	writePage(w, r, s.tree)
}

func (s *Server) listBranches(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.project(r); !ok {
		writeMessage(w, http.StatusNotFound, "404 Project Not Found")

		return
	}

	writePage(w, r, s.branches)
}

func (s *Server) getBranch(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.project(r); !ok {
		writeMessage(w, http.StatusNotFound, "404 Project Not Found")

		return
	}

	name := pathParam(r, "branch")

	for _, branch := range s.branches {
		if branch["name"] == name {
			writeJSON(w, http.StatusOK, branch)

			return
		}
	}

	writeMessage(w, http.StatusNotFound, "404 Branch Not Found")
}

// project resolves the {id} parameter, which is either a numeric ID or a
// URL-encoded namespace path. The caller must hold the mutex.
func (s *Server) project(r *http.Request) (map[string]any, bool) {
	ref := pathParam(r, "id")

	if id, err := strconv.Atoi(ref); err == nil {
		project, ok := s.projects[id]

		return project, ok
	}

	for _, project := range s.projects {
		if project["path_with_namespace"] == ref {
			return project, true
		}
	}

	return nil, false
}

func (s *Server) issue(r *http.Request) (int, map[string]any, bool) {
	project, ok := s.project(r)
	if !ok {
		return 0, nil, false
	}

	projectID := project["id"].(int)
	iid, _ := strconv.Atoi(chi.URLParam(r, "issue_id"))

	for _, issue := range s.issues[projectID] {
		if issue["iid"] == iid {
			return projectID, issue, true
		}
	}

	return 0, nil, false
}

func (s *Server) milestone(r *http.Request) (map[string]any, bool) {
	project, ok := s.project(r)
	if !ok {
		return nil, false
	}

	id, _ := strconv.Atoi(chi.URLParam(r, "milestone_id"))

	for _, milestone := range s.milestones[project["id"].(int)] {
		if milestone["id"] == id {
			return milestone, true
		}
	}

	return nil, false
}

func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)

	value, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}

	return value
}

// writePage applies GitLab's offset pagination. A page past the end is an
// empty array.
func writePage(w http.ResponseWriter, r *http.Request, items []map[string]any) {
	page := intQuery(r, constants.ParamPage, 1)
	perPage := min(intQuery(r, constants.ParamPerPage, constants.DefaultPageSize), constants.MaxPageSize)

	start := min((page-1)*perPage, len(items))
	end := min(start+perPage, len(items))

	w.Header().Set("X-Page", strconv.Itoa(page))
	w.Header().Set("X-Per-Page", strconv.Itoa(perPage))
	w.Header().Set("X-Total", strconv.Itoa(len(items)))

	writeJSON(w, http.StatusOK, items[start:end])
}

func intQuery(r *http.Request, key string, fallback int) int {
	value, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || value < 1 {
		return fallback
	}

	return value
}

func readBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	body := map[string]any{}

	if r.ContentLength == 0 {
		return body, true
	}

	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": fmt.Sprintf("invalid body: %v", err)})

		return nil, false
	}

	return body, true
}

func labels(value any) []string {
	switch typed := value.(type) {
	case string:
		result := make([]string, 0)

		for _, label := range strings.Split(typed, ",") {
			if label = strings.TrimSpace(label); label != "" {
				result = append(result, label)
			}
		}

		return result
	case []any:
		result := make([]string, 0, len(typed))
		for _, item := range typed {
			result = append(result, fmt.Sprint(item))
		}

		return result
	default:
		return []string{}
	}
}

func stringOr(value any, fallback string) string {
	if str, ok := value.(string); ok {
		return str
	}

	return fallback
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"message": message})
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", constants.ContentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
