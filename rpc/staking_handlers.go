package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"stakevault/crypto"
	nativecommon "stakevault/native/common"
	"stakevault/native/staking"
	"stakevault/token"
)

const stakingModulePausedMessage = "staking module paused"

type stakingMoveParams struct {
	Caller string `json:"caller"`
	Amount string `json:"amount"`
}

type stakingClaimParams struct {
	Caller string `json:"caller"`
}

type stakingMoveResult struct {
	StakedAmount     string `json:"stakedAmount"`
	UnclaimedRewards string `json:"unclaimedRewards"`
	LastUpdateTime   uint64 `json:"lastUpdateTime"`
}

type stakingClaimResult struct {
	Paid          string `json:"paid"`
	RewardBalance string `json:"rewardBalance"`
}

type stakingPositionResult struct {
	Address          string `json:"address"`
	StakedAmount     string `json:"stakedAmount"`
	UnclaimedRewards string `json:"unclaimedRewards"`
	LastUpdateTime   uint64 `json:"lastUpdateTime"`
}

type stakingAvailableResult struct {
	Payable string `json:"payable"`
	AsOfTs  int64  `json:"asOfTs"`
}

type stakingBalanceResult struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
	Token   string `json:"token"`
}

func parseAmount(amount string) (*big.Int, error) {
	trimmed := strings.TrimSpace(amount)
	if trimmed == "" {
		return nil, fmt.Errorf("amount is required")
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount")
	}
	if value.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	return value, nil
}

func decodeMoveParams(req *RPCRequest) (crypto.Address, *big.Int, error) {
	if len(req.Params) != 1 {
		return crypto.Address{}, nil, fmt.Errorf("exactly one parameter object expected")
	}
	var params stakingMoveParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		return crypto.Address{}, nil, fmt.Errorf("invalid parameter object")
	}
	addr, err := crypto.DecodeAddress(params.Caller)
	if err != nil {
		return crypto.Address{}, nil, fmt.Errorf("invalid caller address: %w", err)
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		return crypto.Address{}, nil, err
	}
	return addr, amount, nil
}

func decodeCallerParam(req *RPCRequest) (crypto.Address, error) {
	if len(req.Params) != 1 {
		return crypto.Address{}, fmt.Errorf("exactly one parameter object expected")
	}
	var params stakingClaimParams
	if err := json.Unmarshal(req.Params[0], &params); err == nil && strings.TrimSpace(params.Caller) != "" {
		return crypto.DecodeAddress(params.Caller)
	}
	var addrStr string
	if err := json.Unmarshal(req.Params[0], &addrStr); err != nil {
		return crypto.Address{}, fmt.Errorf("address parameter required")
	}
	return crypto.DecodeAddress(addrStr)
}

// writeEngineError maps engine failures onto JSON-RPC error codes.
func writeEngineError(w http.ResponseWriter, req *RPCRequest, err error) {
	switch {
	case errors.Is(err, nativecommon.ErrModulePaused):
		writeError(w, http.StatusServiceUnavailable, req.ID, codeModulePaused, stakingModulePausedMessage, nil)
	case errors.Is(err, staking.ErrReentrancy):
		writeError(w, http.StatusConflict, req.ID, codeBusy, "staking operation already in flight", nil)
	case errors.Is(err, staking.ErrInvalidAmount),
		errors.Is(err, staking.ErrNoOwnership),
		errors.Is(err, staking.ErrNoStake),
		errors.Is(err, staking.ErrInsufficientStake),
		errors.Is(err, staking.ErrNoRewards),
		errors.Is(err, token.ErrInvalidAmount),
		errors.Is(err, token.ErrInsufficientBalance),
		errors.Is(err, token.ErrInsufficientCustody):
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "staking operation failed", err.Error())
	}
}

func (s *Server) handleStakingStake(w http.ResponseWriter, req *RPCRequest) {
	addr, amount, err := decodeMoveParams(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.engine.Stake(addr, amount); err != nil {
		s.observeOp("stake", err)
		writeEngineError(w, req, err)
		return
	}
	s.observeOp("stake", nil)
	s.publishTotalStaked()
	s.writePosition(w, req, addr)
}

func (s *Server) handleStakingWithdraw(w http.ResponseWriter, req *RPCRequest) {
	addr, amount, err := decodeMoveParams(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.engine.Withdraw(addr, amount); err != nil {
		s.observeOp("withdraw", err)
		writeEngineError(w, req, err)
		return
	}
	s.observeOp("withdraw", nil)
	s.publishTotalStaked()
	s.writePosition(w, req, addr)
}

func (s *Server) handleStakingClaimRewards(w http.ResponseWriter, req *RPCRequest) {
	addr, err := decodeCallerParam(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	paid, err := s.engine.ClaimRewards(addr)
	if err != nil {
		s.observeOp("claimRewards", err)
		writeEngineError(w, req, err)
		return
	}
	s.observeOp("claimRewards", nil)
	paidFloat, _ := new(big.Float).SetInt(paid).Float64()
	s.metrics.AddRewardsPaid(paidFloat)

	balance, err := s.rewardToken.BalanceOf(addr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load reward balance", err.Error())
		return
	}
	writeResult(w, req.ID, stakingClaimResult{
		Paid:          paid.String(),
		RewardBalance: balance.String(),
	})
}

func (s *Server) handleStakingGetPosition(w http.ResponseWriter, req *RPCRequest) {
	addr, err := decodeCallerParam(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	s.writePosition(w, req, addr)
}

func (s *Server) handleStakingAvailableRewards(w http.ResponseWriter, req *RPCRequest) {
	addr, err := decodeCallerParam(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	now := time.Now().Unix()
	payable, err := s.engine.AvailableRewards(addr, now)
	if err != nil {
		writeEngineError(w, req, err)
		return
	}
	writeResult(w, req.ID, stakingAvailableResult{Payable: payable.String(), AsOfTs: now})
}

func (s *Server) handleStakingBalanceOf(w http.ResponseWriter, req *RPCRequest) {
	addr, err := decodeCallerParam(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	balance, err := s.stakeToken.BalanceOf(addr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load balance", err.Error())
		return
	}
	writeResult(w, req.ID, stakingBalanceResult{
		Address: addr.String(),
		Balance: balance.String(),
		Token:   "stake",
	})
}

func (s *Server) writePosition(w http.ResponseWriter, req *RPCRequest, addr crypto.Address) {
	pos, err := s.engine.Position(addr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load position", err.Error())
		return
	}
	writeResult(w, req.ID, stakingPositionResult{
		Address:          addr.String(),
		StakedAmount:     pos.StakedAmount.String(),
		UnclaimedRewards: pos.UnclaimedRewards.String(),
		LastUpdateTime:   pos.LastUpdateTime,
	})
}

// publishTotalStaked refreshes the custody gauge after a stake movement. The
// gauge is best effort; ledgers without a custody account are skipped.
func (s *Server) publishTotalStaked() {
	type custodian interface {
		Custody() crypto.Address
	}
	c, ok := s.stakeToken.(custodian)
	if !ok {
		return
	}
	balance, err := s.stakeToken.BalanceOf(c.Custody())
	if err != nil {
		return
	}
	total, _ := new(big.Float).SetInt(balance).Float64()
	s.metrics.SetTotalStaked(total)
}

func (s *Server) observeOp(op string, err error) {
	switch {
	case err == nil:
		s.metrics.ObserveOp(op, "ok")
	case errors.Is(err, staking.ErrReentrancy):
		s.metrics.ObserveReentrancyRejected()
		s.metrics.ObserveOp(op, "reentrancy")
	default:
		s.metrics.ObserveOp(op, "error")
	}
}
