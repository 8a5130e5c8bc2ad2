package events

import (
	"github.com/awakari/eventsub/model/eventsub/condition"
	"github.com/awakari/eventsub/service/subscription"
	"github.com/bytedance/sonic"
	"strings"
)

type kind[T any] struct {
	typ        string
	version    string
	cliName    string
	cond       condition.Condition
	authUserId string
	idParts    []string
}

var _ subscription.Kind[StreamOnline] = kind[StreamOnline]{}

func (k kind[T]) Id() string {
	return strings.Join(append([]string{k.typ}, k.idParts...), ".")
}

func (k kind[T]) Type() string {
	return k.typ
}

func (k kind[T]) Version() string {
	return k.version
}

func (k kind[T]) Condition() condition.Condition {
	return k.cond
}

func (k kind[T]) AuthUserId() string {
	return k.authUserId
}

func (k kind[T]) CliName() string {
	return k.cliName
}

func (k kind[T]) Transform(data []byte) (evt T, err error) {
	err = sonic.Unmarshal(data, &evt)
	return
}
