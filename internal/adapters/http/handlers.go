package http

import (
	"net/http"
	"time"

	"github.com/atvirokodosprendimai/topicgraph/internal/application"
	"github.com/go-chi/chi/v5"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	TokenName  string `json:"token_name"`
	TTLSeconds int64  `json:"ttl_seconds"`
}

type userResponse struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	u, err := h.services.Auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{ID: u.ID, Email: u.Email})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	var ttl *time.Duration
	if req.TTLSeconds > 0 {
		d := time.Duration(req.TTLSeconds) * time.Second
		ttl = &d
	}
	u, token, err := h.services.Auth.Login(r.Context(), req.Email, req.Password, req.TokenName, ttl)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_id": u.ID, "email": u.Email, "token": token})
}

func (h *Handler) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	writeJSON(w, http.StatusOK, userResponse{ID: identity.User.ID, Email: identity.User.Email})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, _ := bearerToken(r)
	if err := h.services.Auth.Logout(r.Context(), token); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) handleAnonymize(w http.ResponseWriter, r *http.Request) {
	u, err := h.services.Auth.Anonymize(r.Context(), identityFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{ID: u.ID, Email: u.Email})
}

func (h *Handler) handleSearchTopics(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	items, err := h.services.Topics.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleCreateTopic(w http.ResponseWriter, r *http.Request) {
	var req application.CreateTopicInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.services.Topics.CreateTopic(r.Context(), identityFromContext(r.Context()), req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) handleGetTopic(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	topic, err := h.services.Topics.GetTopic(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, topic)
}

func (h *Handler) handleDeleteTopic(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.services.Topics.DeleteTopic(r.Context(), identityFromContext(r.Context()), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListTopicInteractions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	items, err := h.services.Ledger.ListForTopic(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleListMyInteractions(w http.ResponseWriter, r *http.Request) {
	items, err := h.services.Ledger.ListForUser(r.Context(), identityFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleListNodes(w http.ResponseWriter, r *http.Request) {
	topicID, err := queryUint(r, "topic_id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	items, err := h.services.Graph.ListNodes(r.Context(), topicID, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleGetNode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	node, err := h.services.Graph.GetNode(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

func (h *Handler) handleCreateNode(w http.ResponseWriter, r *http.Request) {
	var req application.CreateNodeInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.services.Graph.CreateNode(r.Context(), identityFromContext(r.Context()), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) handleUpdateNode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req application.UpdateNodeInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.services.Graph.UpdateNode(r.Context(), identityFromContext(r.Context()), id, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.services.Graph.DeleteNode(r.Context(), identityFromContext(r.Context()), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleUpdatePositions(w http.ResponseWriter, r *http.Request) {
	var req application.UpdatePositionsInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.services.Graph.UpdatePositions(r.Context(), identityFromContext(r.Context()), req.Positions); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": len(req.Positions)})
}

func (h *Handler) handleListConnections(w http.ResponseWriter, r *http.Request) {
	topicID, err := queryUint(r, "topic_id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	items, err := h.services.Graph.ListConnections(r.Context(), topicID, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleGetConnection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	conn, err := h.services.Graph.GetConnection(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

func (h *Handler) handleCreateConnection(w http.ResponseWriter, r *http.Request) {
	var req application.CreateConnectionInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	conn, err := h.services.Graph.CreateConnection(r.Context(), identityFromContext(r.Context()), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, conn)
}

func (h *Handler) handleUpdateConnection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req application.UpdateConnectionInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	conn, err := h.services.Graph.UpdateConnection(r.Context(), identityFromContext(r.Context()), id, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

func (h *Handler) handleDeleteConnection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.services.Graph.DeleteConnection(r.Context(), identityFromContext(r.Context()), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListPosts(w http.ResponseWriter, r *http.Request) {
	topicID, err := queryUint(r, "topic_id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	items, err := h.services.Posts.ListPosts(r.Context(), topicID, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	post, err := h.services.Posts.GetPost(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *Handler) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req application.CreatePostInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.services.Posts.CreatePost(r.Context(), identityFromContext(r.Context()), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.services.Posts.DeletePost(r.Context(), identityFromContext(r.Context()), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetReference(w http.ResponseWriter, r *http.Request) {
	ref, err := h.services.Resolver.Get(r.Context(), chi.URLParam(r, "externalID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ref)
}
