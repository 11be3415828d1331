package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"gainjar/core"
	"gainjar/core/events"
	"gainjar/core/genesis"
	"gainjar/crypto"
	"gainjar/explorer"
	"gainjar/native/payroll"
	"gainjar/storage"
)

const testChainID = "gainjar-rpc-test"

var testToken = [20]byte{0x70, 0x02}

type testAccount struct {
	key   *crypto.PrivateKey
	addr  [20]byte
	nonce uint64
}

func newTestAccount(t *testing.T) *testAccount {
	t.Helper()
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	return &testAccount{key: key, addr: key.PubKey().Address().Array()}
}

func (a *testAccount) bech32() string { return crypto.FormatAddress(a.addr) }

type rpcEnv struct {
	node   *core.Node
	index  *explorer.Index
	server *httptest.Server
	now    time.Time
}

func newRPCEnv(t *testing.T, limit RateLimit, allocs ...genesis.Alloc) *rpcEnv {
	t.Helper()
	env := &rpcEnv{now: time.Unix(1_700_000_000, 0)}
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	node, err := core.NewNode(db, core.NodeConfig{
		ChainID:       testChainID,
		TriggerPolicy: payroll.TriggerEmployerOrEmployee,
		Genesis:       allocs,
		Now:           func() time.Time { return env.now },
	})
	require.NoError(t, err)
	index, err := explorer.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	node.AddEventSink(index)

	srv := NewServer(node, ServerConfig{RateLimit: limit, Events: index})
	env.node = node
	env.index = index
	env.server = httptest.NewServer(srv.Handler())
	t.Cleanup(env.server.Close)
	return env
}

type testResponse struct {
	ID     interface{}     `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

func (e *rpcEnv) call(t *testing.T, method string, params ...interface{}) (*http.Response, testResponse) {
	t.Helper()
	raw := make([]json.RawMessage, 0, len(params))
	for _, p := range params {
		encoded, err := json.Marshal(p)
		require.NoError(t, err)
		raw = append(raw, encoded)
	}
	body, err := json.Marshal(RPCRequest{JSONRPC: jsonRPCVersion, Method: method, Params: raw, ID: 1})
	require.NoError(t, err)
	return e.post(t, body)
}

func (e *rpcEnv) post(t *testing.T, body []byte) (*http.Response, testResponse) {
	t.Helper()
	resp, err := http.Post(e.server.URL+"/", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out testResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func (e *rpcEnv) submit(t *testing.T, from *testAccount, op payroll.Op) testResponse {
	t.Helper()
	tx, err := core.NewTransaction(testChainID, from.nonce, op)
	require.NoError(t, err)
	require.NoError(t, tx.Sign(from.key.PrivateKey))
	_, resp := e.call(t, "payroll_submit", tx)
	if resp.Error == nil {
		from.nonce++
	}
	return resp
}

func alloc(addr [20]byte, amount string) genesis.Alloc {
	return genesis.Alloc{Address: crypto.FormatAddress(addr), Token: crypto.FormatAddress(testToken), Amount: amount}
}

func TestHealthz(t *testing.T) {
	env := newRPCEnv(t, RateLimit{})
	resp, err := http.Get(env.server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPayrollFlowOverRPC(t *testing.T) {
	employer := newTestAccount(t)
	employee := newTestAccount(t)
	env := newRPCEnv(t, RateLimit{}, alloc(employer.addr, "2000"))
	token := crypto.FormatAddress(testToken)

	require.Nil(t, env.submit(t, employer, payroll.AddAllowedTokenOp{Token: testToken}).Error)
	require.Nil(t, env.submit(t, employer, payroll.DepositOp{Token: testToken, Amount: uint256.NewInt(900)}).Error)
	require.Nil(t, env.submit(t, employer, payroll.AddEmployeeOp{
		Employee: employee.addr, Salary: uint256.NewInt(400), PaymentInterval: 60,
	}).Error)

	_, resp := env.call(t, "payroll_isAllowed", map[string]string{"employer": employer.bech32(), "token": token})
	require.Nil(t, resp.Error)
	require.JSONEq(t, `{"allowed":true}`, string(resp.Result))

	var emp EmployeeResult
	_, resp = env.call(t, "payroll_getEmployee", map[string]string{"employer": employer.bech32(), "employee": employee.bech32()})
	require.Nil(t, resp.Error)
	require.NoError(t, json.Unmarshal(resp.Result, &emp))
	require.Equal(t, "400", emp.Salary)
	require.Equal(t, uint64(1_700_000_060), emp.NextPaymentAt)
	require.True(t, emp.Active)

	// Not due yet.
	pay := payroll.ExecutePaymentOp{Employer: employer.addr, Employee: employee.addr, Token: testToken}
	resp = env.submit(t, employee, pay)
	require.NotNil(t, resp.Error)
	require.Equal(t, codePaymentNotDue, resp.Error.Code)

	env.now = env.now.Add(time.Minute)
	resp = env.submit(t, employee, pay)
	require.Nil(t, resp.Error)
	var submitted SubmitResult
	require.NoError(t, json.Unmarshal(resp.Result, &submitted))
	require.NotEmpty(t, submitted.TxHash)
	require.Len(t, submitted.Events, 2)
	require.Equal(t, events.TypeTransfer, submitted.Events[0].Type)
	require.Equal(t, events.TypePayrollPaymentExecuted, submitted.Events[1].Type)

	var balance BalanceResult
	_, resp = env.call(t, "payroll_balance", map[string]string{"employer": employer.bech32(), "token": token})
	require.Nil(t, resp.Error)
	require.NoError(t, json.Unmarshal(resp.Result, &balance))
	require.Equal(t, "500", balance.Amount)

	_, resp = env.call(t, "bank_getBalance", map[string]string{"account": employee.bech32(), "token": token})
	require.Nil(t, resp.Error)
	require.NoError(t, json.Unmarshal(resp.Result, &balance))
	require.Equal(t, "400", balance.Amount)

	var coverage []CoverageResult
	_, resp = env.call(t, "payroll_vaultStatus", map[string]string{"employer": employer.bech32()})
	require.Nil(t, resp.Error)
	require.NoError(t, json.Unmarshal(resp.Result, &coverage))
	require.Len(t, coverage, 1)
	// 400 every 60s drains 576000 a day, so 500 is under a day of runway.
	require.Equal(t, "6", coverage[0].FlowRate)
	require.Equal(t, "576000", coverage[0].DailyBurn)
	require.Equal(t, "0", coverage[0].DaysRemaining)
	require.Equal(t, payroll.VaultEmergency.String(), coverage[0].Status)
	require.False(t, coverage[0].CanAddEmployee)

	var history []EventResult
	_, resp = env.call(t, "events_list", map[string]string{"type": events.TypePayrollPaymentExecuted, "employee": employee.bech32()})
	require.Nil(t, resp.Error)
	require.NoError(t, json.Unmarshal(resp.Result, &history))
	require.Len(t, history, 1)
	require.Equal(t, "400", history[0].Attributes["amount"])
	require.NotEmpty(t, history[0].Summary)

	var nonce map[string]uint64
	_, resp = env.call(t, "account_nonce", map[string]string{"account": employer.bech32()})
	require.Nil(t, resp.Error)
	require.NoError(t, json.Unmarshal(resp.Result, &nonce))
	require.Equal(t, uint64(3), nonce["nonce"])
}

func TestListEmployeesActiveOnly(t *testing.T) {
	employer := newTestAccount(t)
	first := newTestAccount(t)
	second := newTestAccount(t)
	env := newRPCEnv(t, RateLimit{})

	for _, employee := range []*testAccount{first, second} {
		require.Nil(t, env.submit(t, employer, payroll.AddEmployeeOp{
			Employee: employee.addr, Salary: uint256.NewInt(10), PaymentInterval: 60,
		}).Error)
	}
	require.Nil(t, env.submit(t, employer, payroll.DeactivateEmployeeOp{Employee: first.addr}).Error)

	var all []EmployeeResult
	_, resp := env.call(t, "payroll_listEmployees", map[string]interface{}{"employer": employer.bech32()})
	require.Nil(t, resp.Error)
	require.NoError(t, json.Unmarshal(resp.Result, &all))
	require.Len(t, all, 2)
	require.False(t, all[0].Active)

	var active []EmployeeResult
	_, resp = env.call(t, "payroll_listEmployees", map[string]interface{}{"employer": employer.bech32(), "activeOnly": true})
	require.Nil(t, resp.Error)
	require.NoError(t, json.Unmarshal(resp.Result, &active))
	require.Len(t, active, 1)
	require.Equal(t, second.bech32(), active[0].Address)
}

func TestSubmitErrorCodes(t *testing.T) {
	employer := newTestAccount(t)
	stranger := newTestAccount(t)
	env := newRPCEnv(t, RateLimit{}, alloc(employer.addr, "100"))

	resp := env.submit(t, employer, payroll.AddAllowedTokenOp{Token: testToken})
	require.Nil(t, resp.Error)
	resp = env.submit(t, employer, payroll.AddAllowedTokenOp{Token: testToken})
	require.Equal(t, codeTokenAlreadyAllowed, resp.Error.Code)

	resp = env.submit(t, employer, payroll.AddEmployeeOp{Employee: stranger.addr, Salary: uint256.NewInt(1)})
	require.Equal(t, codeInvalidInterval, resp.Error.Code)

	resp = env.submit(t, employer, payroll.DepositOp{Token: [20]byte{0x99}, Amount: uint256.NewInt(1)})
	require.Equal(t, codeTokenNotAllowed, resp.Error.Code)

	resp = env.submit(t, employer, payroll.DepositOp{Token: testToken, Amount: uint256.NewInt(500)})
	require.Equal(t, codeInsufficientFunds, resp.Error.Code)

	resp = env.submit(t, stranger, payroll.ExecutePaymentOp{Employer: employer.addr, Employee: employer.addr, Token: testToken})
	require.Equal(t, codeUnauthorized, resp.Error.Code)

	// Stale nonce.
	employer.nonce = 0
	resp = env.submit(t, employer, payroll.AddAllowedTokenOp{Token: [20]byte{0x42}})
	require.Equal(t, codeNonceMismatch, resp.Error.Code)
}

func TestRequestValidation(t *testing.T) {
	env := newRPCEnv(t, RateLimit{})

	httpResp, resp := env.post(t, []byte(`{not json`))
	require.Equal(t, http.StatusBadRequest, httpResp.StatusCode)
	require.Equal(t, codeParseError, resp.Error.Code)

	httpResp, resp = env.call(t, "payroll_unknown")
	require.Equal(t, http.StatusNotFound, httpResp.StatusCode)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)

	_, resp = env.call(t, "payroll_allowedTokens", map[string]string{"employer": "not-an-address"})
	require.Equal(t, codeInvalidParams, resp.Error.Code)

	_, resp = env.call(t, "payroll_getEmployee", map[string]string{
		"employer": crypto.FormatAddress([20]byte{1}),
		"employee": crypto.FormatAddress([20]byte{2}),
	})
	require.Equal(t, codeEmployeeNotFound, resp.Error.Code)

	oversized := fmt.Sprintf(`{"jsonrpc":"2.0","method":"chain_stateRoot","params":["%s"],"id":1}`,
		strings.Repeat("a", maxRequestBytes))
	httpResp, resp = env.post(t, []byte(oversized))
	require.Equal(t, http.StatusRequestEntityTooLarge, httpResp.StatusCode)
	require.Equal(t, codeInvalidRequest, resp.Error.Code)
}

func TestRateLimitRejectsBurst(t *testing.T) {
	env := newRPCEnv(t, RateLimit{RequestsPerMinute: 1, Burst: 2})
	for i := 0; i < 2; i++ {
		httpResp, resp := env.call(t, "chain_stateRoot")
		require.Equal(t, http.StatusOK, httpResp.StatusCode)
		require.Nil(t, resp.Error)
	}
	httpResp, resp := env.call(t, "chain_stateRoot")
	require.Equal(t, http.StatusTooManyRequests, httpResp.StatusCode)
	require.Equal(t, codeRateLimited, resp.Error.Code)
}

func TestClientIDIgnoresForwardingFromUntrustedPeers(t *testing.T) {
	limiter := NewRateLimiter(RateLimit{RequestsPerMinute: 60, Burst: 1}, nil)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "192.0.2.10:7000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("203.0.113.%d", i))
		require.Equal(t, "192.0.2.10", limiter.clientID(req))
	}

	// Rotating the header must not mint fresh buckets.
	handler := limiter.Middleware("rpc")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "192.0.2.10:7000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	require.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestClientIDHonorsTrustedProxy(t *testing.T) {
	limiter := NewRateLimiter(RateLimit{TrustedProxies: []string{"10.0.0.0/24", "::1"}}, nil)
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.5:4242"
	require.Equal(t, "10.0.0.5", limiter.clientID(req))
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	require.Equal(t, "203.0.113.7", limiter.clientID(req))
	req.Header.Set("X-Real-IP", "198.51.100.2")
	require.Equal(t, "198.51.100.2", limiter.clientID(req))

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "[::1]:9000"
	req.Header.Set("X-Forwarded-For", "::ffff:198.51.100.9")
	require.Equal(t, "198.51.100.9", limiter.clientID(req))
}

func TestParseTrustedProxiesRejectsGarbage(t *testing.T) {
	_, err := ParseTrustedProxies([]string{"10.0.0.1", "not-an-ip"})
	require.Error(t, err)
	prefixes, err := ParseTrustedProxies([]string{" 10.0.0.1 ", "10.1.0.0/16", ""})
	require.NoError(t, err)
	require.Len(t, prefixes, 2)
}

func TestEventsStreamOverWebsocket(t *testing.T) {
	employer := newTestAccount(t)
	env := newRPCEnv(t, RateLimit{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws/events?type=" + events.TypePayrollTokenAllowed
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	// The subscription is registered after the upgrade completes, so keep
	// producing events until the first one arrives.
	done := make(chan struct{})
	defer close(done)
	go func() {
		for i := byte(1); ; i++ {
			select {
			case <-done:
				return
			case <-time.After(20 * time.Millisecond):
			}
			tx, err := core.NewTransaction(testChainID, employer.nonce, payroll.AddAllowedTokenOp{Token: [20]byte{i}})
			if err != nil || tx.Sign(employer.key.PrivateKey) != nil {
				return
			}
			if _, err := env.node.SubmitTransaction(context.Background(), tx); err == nil {
				employer.nonce++
			}
		}
	}()

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var evt EventResult
	require.NoError(t, json.Unmarshal(data, &evt))
	require.Equal(t, events.TypePayrollTokenAllowed, evt.Type)
	require.Equal(t, crypto.FormatAddress(employer.addr), evt.Attributes["employer"])
}
