package rpcServer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mojo-fit/mojo-indexer/pkg/pipeline"
	"github.com/mojo-fit/mojo-indexer/pkg/service/indexDataService"
	"github.com/mojo-fit/mojo-indexer/pkg/storage"
	"github.com/mojo-fit/mojo-indexer/pkg/utils"
	"go.uber.org/zap"
)

func (s *RpcServer) handleHealth(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *RpcServer) handleStatus(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	position, err := s.checkpoints.Read(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	res := &statusResponse{
		Checkpoint: position,
		State:      s.runner.State().String(),
	}

	window, err := s.indexDataService.GetLatestWindow(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if window != nil {
		res.LastWindow = &windowResponse{
			FromPosition: window.FromPosition,
			ToPosition:   window.ToPosition,
			FactCount:    window.FactCount,
			StateRoot:    window.StateRoot,
		}
	}

	if lastRun, at := s.getLastRun(); lastRun != nil {
		res.LastRun = &lastRunResponse{
			CompletedAt:      at,
			StartPosition:    lastRun.StartPosition,
			EndPosition:      lastRun.EndPosition,
			LedgerTip:        lastRun.LedgerTip,
			WindowsProcessed: lastRun.WindowsProcessed,
			FactsApplied:     lastRun.FactsApplied,
		}
		if lastRun.Err != nil {
			res.LastRun.Error = lastRun.Err.Error()
		}
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *RpcServer) handleListSessions(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	limit, err := parseLimit(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	rawStatus, err := parseStatus(r, int(storage.SessionStatus_Expired))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	var status *storage.SessionStatus
	if rawStatus != nil {
		st := storage.SessionStatus(*rawStatus)
		status = &st
	}

	sessions, err := s.indexDataService.ListSessions(r.Context(), status, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	res := make([]sessionResponse, 0, len(sessions))
	for _, session := range sessions {
		res = append(res, convertSession(session))
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *RpcServer) handleGetSession(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	id, err := strconv.ParseUint(pathParams["id"], 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid session id '%s'", pathParams["id"]))
		return
	}
	detail, err := s.indexDataService.GetSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, indexDataService.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, errors.New("session not found"))
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, convertSessionDetail(detail))
}

func (s *RpcServer) handleListChallenges(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	limit, err := parseLimit(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	rawStatus, err := parseStatus(r, int(storage.ChallengeStatus_Cancelled))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	var status *storage.ChallengeStatus
	if rawStatus != nil {
		st := storage.ChallengeStatus(*rawStatus)
		status = &st
	}

	challenges, err := s.indexDataService.ListChallenges(r.Context(), r.URL.Query().Get("opponent"), status, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	res := make([]*challengeResponse, 0, len(challenges))
	for _, c := range challenges {
		res = append(res, convertChallenge(c))
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *RpcServer) handleGetFighter(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	address := utils.NormalizeAddress(pathParams["address"])
	if !common.IsHexAddress(address) {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid address '%s'", pathParams["address"]))
		return
	}
	fighter, err := s.indexDataService.GetFighter(r.Context(), address)
	if err != nil {
		if errors.Is(err, indexDataService.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, errors.New("fighter not found"))
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, convertFighter(fighter))
}

func (s *RpcServer) handleLeaderboard(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	limit, err := parseLimit(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	entries, err := s.indexDataService.GetLeaderboard(r.Context(), r.URL.Query().Get("sort"), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	res := make([]*leaderboardEntryResponse, 0, len(entries))
	for _, e := range entries {
		res = append(res, &leaderboardEntryResponse{
			Rank:            e.Rank,
			fighterResponse: convertFighter(e.Fighter),
			Value:           strconv.FormatUint(e.Value, 10),
			Label:           e.Label,
		})
	}
	s.writeJSON(w, http.StatusOK, res)
}

// handleIndex runs the indexer to the current tip. Only one run may be active at a time.
func (s *RpcServer) handleIndex(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	result, err := s.runner.Run(context.WithoutCancel(r.Context()))
	if err != nil {
		if errors.Is(err, pipeline.ErrRunInProgress) {
			s.writeError(w, http.StatusConflict, err)
			return
		}
		s.Logger.Sugar().Errorw("Triggered run failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	byKind := make(map[string]int, len(result.FactsByKind))
	for k, v := range result.FactsByKind {
		byKind[string(k)] = v
	}
	s.writeJSON(w, http.StatusOK, &indexResponse{
		Ok:               true,
		StartPosition:    result.StartPosition,
		EndPosition:      result.EndPosition,
		LedgerTip:        result.LedgerTip,
		WindowsProcessed: result.WindowsProcessed,
		FactsApplied:     result.FactsApplied,
		FactsByKind:      byKind,
	})
}
