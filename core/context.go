package core

import "fmt"

// ServiceContext carries everything a service method call needs: who
// called it, what block it runs in, the requested method/payload, and the
// mutable cycle/event accounting shared across hooks and the target call
// within a single transaction.
type ServiceContext struct {
	txHash         *Hash
	caller         Address
	height         uint64
	timestamp      int64
	serviceName    string
	serviceMethod  string
	servicePayload string
	cyclesLimit    uint64
	cyclesPrice    uint64
	cyclesUsed     *uint64
	events         *[]Event
}

// NewServiceContext builds a fresh context with zeroed cycle/event
// accounting. txHash is nil for read-only queries.
func NewServiceContext(txHash *Hash, caller Address, height uint64, timestamp int64, cyclesPrice, cyclesLimit uint64, req TransactionRequest) *ServiceContext {
	used := uint64(0)
	events := []Event{}
	return &ServiceContext{
		txHash:         txHash,
		caller:         caller,
		height:         height,
		timestamp:      timestamp,
		serviceName:    req.ServiceName,
		serviceMethod:  req.Method,
		servicePayload: req.Payload,
		cyclesLimit:    cyclesLimit,
		cyclesPrice:    cyclesPrice,
		cyclesUsed:     &used,
		events:         &events,
	}
}

// WithService returns a shallow copy of ctx dispatched at a different
// service/method/payload, sharing the same cycle and event accounting so a
// cross-service call still counts against the originating transaction's
// budget and log.
func (c *ServiceContext) WithService(name, method, payload string) *ServiceContext {
	cp := *c
	cp.serviceName = name
	cp.serviceMethod = method
	cp.servicePayload = payload
	return &cp
}

func (c *ServiceContext) TxHash() *Hash           { return c.txHash }
func (c *ServiceContext) Caller() Address         { return c.caller }
func (c *ServiceContext) Height() uint64          { return c.height }
func (c *ServiceContext) Timestamp() int64        { return c.timestamp }
func (c *ServiceContext) ServiceName() string     { return c.serviceName }
func (c *ServiceContext) ServiceMethod() string   { return c.serviceMethod }
func (c *ServiceContext) ServicePayload() string  { return c.servicePayload }
func (c *ServiceContext) CyclesLimit() uint64     { return c.cyclesLimit }
func (c *ServiceContext) CyclesPrice() uint64     { return c.cyclesPrice }
func (c *ServiceContext) CyclesUsed() uint64      { return *c.cyclesUsed }
func (c *ServiceContext) Events() []Event         { return *c.events }

// UseCycles accounts amount against the transaction's cycle limit, failing
// instead of panicking so handlers can surface exhaustion as a normal
// ServiceResponse error.
func (c *ServiceContext) UseCycles(amount uint64) error {
	if *c.cyclesUsed+amount > c.cyclesLimit {
		return fmt.Errorf("cycles: limit %d exceeded (used %d, requested %d)", c.cyclesLimit, *c.cyclesUsed, amount)
	}
	*c.cyclesUsed += amount
	return nil
}

// AddEvent appends an event to the transaction's log.
func (c *ServiceContext) AddEvent(service, data string) {
	*c.events = append(*c.events, Event{Service: service, Data: data})
}
