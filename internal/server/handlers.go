package server

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/utopialabs/utopia/internal/domain"
	"github.com/utopialabs/utopia/internal/query"
	"github.com/utopialabs/utopia/internal/report"
	"github.com/utopialabs/utopia/internal/store"
)

// APIHandlers exposes the query and reference endpoints. All payloads are
// XML documents produced through the report serializer.
type APIHandlers struct {
	logger     *slog.Logger
	engine     *query.Engine
	cache      *query.ResultCache
	serializer *report.Serializer
	store      *store.Store
}

// NewAPIHandlers builds the handler set. cache may be nil to disable
// result caching.
func NewAPIHandlers(logger *slog.Logger, engine *query.Engine, cache *query.ResultCache, serializer *report.Serializer, st *store.Store) *APIHandlers {
	return &APIHandlers{
		logger:     logger,
		engine:     engine,
		cache:      cache,
		serializer: serializer,
		store:      st,
	}
}

// handleTransactions serves GET queries described entirely by URL
// parameters. These queries carry no selectors, so they are eligible for
// the result cache.
func (h *APIHandlers) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	h.runQuery(w, query.ParseValues(r.URL.Query()))
}

// handleTransactionQuery serves POST queries whose body is a JSON query
// document with selectors and properties.
func (h *APIHandlers) handleTransactionQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	opts, err := query.ParseDocument(r.Body)
	if err != nil {
		h.respondQueryError(w, err)
		return
	}
	h.runQuery(w, opts)
}

func (h *APIHandlers) runQuery(w http.ResponseWriter, opts query.Options) {
	var cacheKey string
	if h.cache != nil && opts.Cacheable() {
		cacheKey = opts.CacheKey(h.serializer.Signing())
		if body, ok := h.cache.Get(cacheKey); ok {
			respondXML(w, http.StatusOK, body)
			return
		}
	}

	tree, err := h.engine.Run(opts)
	if err != nil {
		h.respondQueryError(w, err)
		return
	}

	body, err := h.serializer.Serialize(tree, opts.Pretty)
	if err != nil {
		h.logger.Error("serialize result", "error", err)
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if cacheKey != "" {
		if err := h.cache.Put(cacheKey, body); err != nil {
			h.logger.Warn("cache result", "key", cacheKey, "error", err)
		}
	}
	respondXML(w, http.StatusOK, body)
}

// handleTransactionTypes lists the known transaction type labels.
func (h *APIHandlers) handleTransactionTypes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	root := report.NewNode("Data")
	list := root.AddChild("TransactionTypes")
	for _, t := range []domain.TransactionType{domain.TypeChip, domain.TypeOnline, domain.TypeSwipe} {
		list.AddString("Type", t.String())
	}
	h.respondTree(w, root)
}

// handleUsers lists every user in the reference store.
func (h *APIHandlers) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	snap := h.store.Snapshot()
	defer snap.Close()

	type userRecord struct {
		id   uint16
		user domain.User
	}
	var users []userRecord
	err := snap.ScanUsers(func(id uint16, u domain.User) error {
		users = append(users, userRecord{id: id, user: u})
		return nil
	})
	if err != nil {
		h.logger.Error("scan users", "error", err)
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	sort.Slice(users, func(i, j int) bool { return users[i].id < users[j].id })

	root := report.NewNode("Data")
	list := root.AddChild("Users")
	for _, rec := range users {
		addUser(list, rec.id, rec.user)
	}
	h.respondTree(w, root)
}

// handleUser serves a single user by id from the /users/{id} path.
func (h *APIHandlers) handleUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/users/")
	id, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	snap := h.store.Snapshot()
	defer snap.Close()

	user, err := snap.User(uint16(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.Error("load user", "id", id, "error", err)
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	root := report.NewNode("Data")
	addUser(root, uint16(id), user)
	h.respondTree(w, root)
}

func addUser(parent *report.Node, id uint16, u domain.User) {
	node := parent.AddChild("User")
	node.SetAttr("ID", strconv.FormatUint(uint64(id), 10))
	node.
		AddString("FirstName", u.FirstName).
		AddString("LastName", u.LastName).
		AddString("Email", u.Email)
}

// respondQueryError maps engine failures to status codes: validation
// failures are the caller's fault, everything else is internal.
func (h *APIHandlers) respondQueryError(w http.ResponseWriter, err error) {
	var verr *query.ValidationError
	if errors.As(err, &verr) {
		h.respondError(w, http.StatusBadRequest, verr.Reason)
		return
	}
	h.logger.Error("query failed", "error", err)
	h.respondError(w, http.StatusInternalServerError, "internal error")
}

func (h *APIHandlers) respondTree(w http.ResponseWriter, root *report.Node) {
	body, err := h.serializer.Serialize(root, false)
	if err != nil {
		h.logger.Error("serialize response", "error", err)
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondXML(w, http.StatusOK, body)
}

func (h *APIHandlers) respondError(w http.ResponseWriter, status int, msg string) {
	body, err := h.serializer.Serialize(report.Error(msg), false)
	if err != nil {
		http.Error(w, msg, status)
		return
	}
	respondXML(w, status, body)
}
