/*
Package fakepool implements an in-memory validator pool applying a subset of
ledger rules (authentication, NYM and ATTRIB permissions, reads). It's used in
tests instead of a real pool.
*/
package fakepool

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/mr-tron/base58"
	"github.com/nspcc-dev/vdr-go/pkg/crypto/keys"
	"github.com/nspcc-dev/vdr-go/pkg/ledger/request"
	"github.com/nspcc-dev/vdr-go/pkg/ledger/response"
	"go.uber.org/zap"
)

// Genesis identities.
const (
	TrusteeSeed = "000000000000000000000000Trustee1"
	StewardSeed = "000000000000000000000000Steward1"
)

// Role codes.
const (
	RoleTrustee  = "0"
	RoleSteward  = "2"
	RoleEndorser = "101"
)

// replayCacheSize is the number of processed requests remembered, resent
// requests get the same reply without being applied again.
const replayCacheSize = 1024

type (
	// Pool is a single-node in-memory ledger. It's thread-safe and
	// implements pool.Transport.
	Pool struct {
		lock    sync.Mutex
		log     *zap.Logger
		seqNo   uint64
		now     func() time.Time
		nyms    map[string]*nym
		attribs map[string]map[string]*attrib
		replies *lru.Cache

		// Trustee and Steward are genesis identities.
		Trustee *keys.PrivateKey
		Steward *keys.PrivateKey
	}

	nym struct {
		response.NymData
		alias string
	}

	attrib struct {
		field   string
		name    string
		value   string
		seqNo   uint64
		txnTime uint64
	}

	// attribReply is a GET_ATTRIB result.
	attribReply struct {
		Type       string  `json:"type"`
		Identifier string  `json:"identifier,omitempty"`
		ReqID      uint64  `json:"reqId"`
		Dest       string  `json:"dest"`
		Raw        string  `json:"raw,omitempty"`
		Hash       string  `json:"hash,omitempty"`
		Enc        string  `json:"enc,omitempty"`
		Data       *string `json:"data"`
		SeqNo      uint64  `json:"seqNo,omitempty"`
		TxnTime    uint64  `json:"txnTime,omitempty"`
	}

	// writeReply is a result of write requests.
	writeReply struct {
		response.WriteResult
		Dest string `json:"dest"`
	}
)

// New returns a Pool with Trustee and Steward genesis NYMs.
func New(log *zap.Logger) *Pool {
	if log == nil {
		log = zap.NewNop()
	}
	cache, err := lru.New(replayCacheSize)
	if err != nil {
		panic(err)
	}
	p := &Pool{
		log:     log,
		now:     time.Now,
		nyms:    make(map[string]*nym),
		attribs: make(map[string]map[string]*attrib),
		replies: cache,
	}
	p.Trustee = mustKey(TrusteeSeed)
	p.Steward = mustKey(StewardSeed)
	p.addNym("", p.Trustee.DID(), p.Trustee.PublicKey().String(), RoleTrustee)
	p.addNym(p.Trustee.DID(), p.Steward.DID(), p.Steward.PublicKey().String(), RoleSteward)
	return p
}

func mustKey(seed string) *keys.PrivateKey {
	k, err := keys.NewPrivateKeyFromSeed(seed)
	if err != nil {
		panic(err)
	}
	return k
}

// Submit implements pool.Transport interface.
func (p *Pool) Submit(ctx context.Context, req []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.Process(req), nil
}

// Process handles a serialized request and returns a serialized reply.
func (p *Pool) Process(data []byte) []byte {
	var (
		key requestKey
		req request.Request
	)
	_ = json.Unmarshal(data, &key)
	if err := json.Unmarshal(data, &req); err != nil {
		return p.reply(nack(key, response.CategoryInvalidClientRequest, err.Error()))
	}

	p.lock.Lock()
	defer p.lock.Unlock()

	cacheKey := key.Identifier + ":" + strconv.FormatUint(key.ReqID, 10) + ":" + key.Signature
	if r, ok := p.replies.Get(cacheKey); ok {
		return r.([]byte)
	}
	env := p.handle(key, &req)
	reply := p.reply(env)
	// Nacked requests are not ordered, they can be corrected and resent.
	if env.Op != response.OpReqNack {
		p.replies.Add(cacheKey, reply)
	}
	return reply
}

func (p *Pool) reply(e *response.Envelope) []byte {
	p.log.Debug("reply", zap.String("op", string(e.Op)), zap.Uint64("reqId", e.ReqID), zap.String("reason", e.Reason))
	data, err := json.Marshal(e)
	if err != nil {
		panic(err)
	}
	return data
}

type requestKey struct {
	Identifier string `json:"identifier"`
	ReqID      uint64 `json:"reqId"`
	Signature  string `json:"signature"`
}

func nack(k requestKey, c response.Category, details string) *response.Envelope {
	return &response.Envelope{Op: response.OpReqNack, Identifier: k.Identifier, ReqID: k.ReqID, Reason: c.Reason(details)}
}

func reject(k requestKey, c response.Category, details string) *response.Envelope {
	return &response.Envelope{Op: response.OpReject, Identifier: k.Identifier, ReqID: k.ReqID, Reason: c.Reason(details)}
}

func (p *Pool) handle(k requestKey, req *request.Request) *response.Envelope {
	if err := req.Validate(); err != nil {
		return nack(k, response.CategoryInvalidClientRequest, quote(err.Error()))
	}
	if req.Operation.IsWrite() {
		if env := p.authenticate(k, req); env != nil {
			return env
		}
	}
	var (
		result any
		env    *response.Envelope
	)
	switch op := req.Operation.(type) {
	case *request.NymOperation:
		result, env = p.applyNym(k, op)
	case *request.AttribOperation:
		result, env = p.applyAttrib(k, op)
	case *request.GetNymOperation:
		result = p.getNym(k, op)
	case *request.GetAttribOperation:
		result, env = p.getAttrib(k, op)
	}
	if env != nil {
		return env
	}
	raw, err := json.Marshal(result)
	if err != nil {
		panic(err)
	}
	return &response.Envelope{Op: response.OpReply, Identifier: k.Identifier, ReqID: k.ReqID, Result: raw}
}

func (p *Pool) authenticate(k requestKey, req *request.Request) *response.Envelope {
	if !req.IsSigned() {
		return nack(k, response.CategoryMissingSignature, "")
	}
	n, ok := p.nyms[req.Identifier]
	if !ok {
		return nack(k, response.CategoryCouldNotAuthenticate, quote("Can not find verkey for "+req.Identifier))
	}
	pub, err := keys.NewPublicKeyFromString(n.Dest, n.Verkey)
	if err != nil {
		return nack(k, response.CategoryCouldNotAuthenticate, quote("bad verkey for "+req.Identifier))
	}
	sig, err := base58.Decode(req.Signature)
	if err != nil {
		return nack(k, response.CategoryInvalidSignatureFormat, quote("signature is not base58"))
	}
	msg, err := req.SigningPayload()
	if err != nil {
		return nack(k, response.CategoryInvalidClientRequest, quote(err.Error()))
	}
	if !pub.Verify(msg, sig) {
		return nack(k, response.CategoryInsufficientCorrectSignatures, "1, 0")
	}
	return nil
}

func (p *Pool) applyNym(k requestKey, op *request.NymOperation) (any, *response.Envelope) {
	submitter := p.nyms[k.Identifier]
	existing, ok := p.nyms[op.Dest]
	switch {
	case !ok:
		if !canCreate(submitter.Role, op.Role) {
			return nil, reject(k, response.CategoryUnauthorizedClientRequest,
				quote(fmt.Sprintf("%s can not add NYM with role %s", roleName(submitter.Role), roleName(op.Role))))
		}
		if op.Verkey != "" {
			if _, err := keys.NewPublicKeyFromString(op.Dest, op.Verkey); err != nil {
				return nil, nack(k, response.CategoryInvalidClientRequest, quote(err.Error()))
			}
		}
		p.addNym(k.Identifier, op.Dest, op.Verkey, deref(op.Role))
		existing = p.nyms[op.Dest]
	default:
		isOwner := k.Identifier == op.Dest
		if op.Role != nil && deref(op.Role) != deref(existing.Role) && deref(submitter.Role) != RoleTrustee {
			return nil, reject(k, response.CategoryUnauthorizedClientRequest,
				quote(roleName(submitter.Role)+" can not change role"))
		}
		if op.Verkey != "" && !isOwner {
			return nil, reject(k, response.CategoryUnauthorizedClientRequest,
				quote("Only identity owner can change verkey"))
		}
		if op.Verkey != "" {
			if _, err := keys.NewPublicKeyFromString(op.Dest, op.Verkey); err != nil {
				return nil, nack(k, response.CategoryInvalidClientRequest, quote(err.Error()))
			}
			existing.Verkey = op.Verkey
		}
		if op.Role != nil {
			existing.Role = roleOrNil(*op.Role)
		}
		p.seqNo++
		existing.SeqNo, existing.TxnTime = p.seqNo, p.txnTime()
	}
	if op.Alias != "" {
		existing.alias = op.Alias
	}
	return p.writeResult(k, request.TypeNym, op.Dest), nil
}

func (p *Pool) applyAttrib(k requestKey, op *request.AttribOperation) (any, *response.Envelope) {
	target, ok := p.nyms[op.Dest]
	if !ok {
		return nil, nack(k, response.CategoryInvalidClientRequest, quote("dest "+op.Dest+" is not a NYM"))
	}
	if k.Identifier != op.Dest && k.Identifier != target.Identifier {
		return nil, reject(k, response.CategoryUnauthorizedClientRequest,
			quote("Only identity owner/guardian can add attribute to that identity"))
	}
	a := &attrib{field: op.Data.Field(), value: op.Data.Value(), name: op.Data.Value()}
	if raw, isRaw := op.Data.(request.Raw); isRaw {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(raw), &obj); err != nil || len(obj) != 1 {
			return nil, nack(k, response.CategoryInvalidClientRequest, quote("raw attribute must be a JSON object with a single key"))
		}
		for name := range obj {
			a.name = name
		}
	}
	p.seqNo++
	a.seqNo, a.txnTime = p.seqNo, p.txnTime()
	if p.attribs[op.Dest] == nil {
		p.attribs[op.Dest] = make(map[string]*attrib)
	}
	p.attribs[op.Dest][a.field+":"+a.name] = a
	return p.writeResult(k, request.TypeAttrib, op.Dest), nil
}

func (p *Pool) getNym(k requestKey, op *request.GetNymOperation) any {
	res := response.ReadResult{Type: request.TypeGetNym, Identifier: k.Identifier, ReqID: k.ReqID, Dest: op.Dest}
	n, ok := p.nyms[op.Dest]
	if !ok {
		return res
	}
	data, err := json.Marshal(n.NymData)
	if err != nil {
		panic(err)
	}
	s := string(data)
	res.Data = &s
	res.SeqNo, res.TxnTime = n.SeqNo, n.TxnTime
	return res
}

func (p *Pool) getAttrib(k requestKey, op *request.GetAttribOperation) (any, *response.Envelope) {
	if op.Selector == nil {
		return nil, nack(k, response.CategoryInvalidClientRequest, quote("one of raw, hash or enc is required"))
	}
	res := attribReply{Type: request.TypeGetAttrib, Identifier: k.Identifier, ReqID: k.ReqID, Dest: op.Dest}
	switch op.Selector.(type) {
	case request.Raw:
		res.Raw = op.Selector.Value()
	case request.Hash:
		res.Hash = op.Selector.Value()
	case request.Enc:
		res.Enc = op.Selector.Value()
	}
	a, ok := p.attribs[op.Dest][op.Selector.Field()+":"+op.Selector.Value()]
	if ok {
		v := a.value
		res.Data = &v
		res.SeqNo, res.TxnTime = a.seqNo, a.txnTime
	}
	return res, nil
}

func (p *Pool) addNym(creator, dest, verkey, role string) {
	p.seqNo++
	p.nyms[dest] = &nym{NymData: response.NymData{
		Dest:       dest,
		Identifier: creator,
		Role:       roleOrNil(role),
		Verkey:     verkey,
		SeqNo:      p.seqNo,
		TxnTime:    p.txnTime(),
	}}
}

func (p *Pool) writeResult(k requestKey, typ, dest string) writeReply {
	return writeReply{
		WriteResult: response.WriteResult{
			Type:       typ,
			Identifier: k.Identifier,
			ReqID:      k.ReqID,
			SeqNo:      p.seqNo,
			TxnTime:    p.txnTime(),
		},
		Dest: dest,
	}
}

func (p *Pool) txnTime() uint64 {
	return uint64(p.now().Unix())
}

// canCreate implements NYM creation permissions: trustees create anything,
// stewards create endorsers and plain identities, endorsers create plain
// identities only.
func canCreate(submitter, role *string) bool {
	switch deref(submitter) {
	case RoleTrustee:
		return true
	case RoleSteward:
		r := deref(role)
		return r == "" || r == RoleEndorser
	case RoleEndorser:
		return deref(role) == ""
	}
	return false
}

func roleName(role *string) string {
	switch deref(role) {
	case RoleTrustee:
		return "TRUSTEE"
	case RoleSteward:
		return "STEWARD"
	case RoleEndorser:
		return "ENDORSER"
	case "201":
		return "NETWORK_MONITOR"
	}
	return "None"
}

func roleOrNil(role string) *string {
	if role == "" {
		return nil
	}
	return &role
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func quote(s string) string {
	return "'" + s + "'"
}
