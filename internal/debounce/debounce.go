// Package debounce slučuje dávky volání (resize okna, rychlé pushe dat) do jediného spuštění akce.
//
// Stavový automat jednoho Debounceru: {pending timer, generace, poslední argument}.
// Každé volání Call zahodí čekající timer a naplánuje nový; při vypršení se akce spustí
// jednou s argumentem z posledního volání. Dřívější argumenty se zahazují, nefrontují.
package debounce

import (
	"sync"
	"time"
)

// Debouncer obaluje akci s jedním argumentem. Pro akce bez argumentu použij T = struct{}.
type Debouncer[T any] struct {
	action func(T)
	wait   time.Duration

	// mu chrání stav automatu níže.
	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64 // zvyšuje se s každým Call/Stop; timer starší generace nic nespustí
	pending bool
	lastArg T

	// runMu zaručí, že akce nikdy neběží souběžně sama se sebou.
	runMu sync.Mutex
}

// New vytvoří Debouncer. wait <= 0 znamená spuštění při nejbližší příležitosti (timer 0).
func New[T any](action func(T), wait time.Duration) *Debouncer[T] {
	if wait < 0 {
		wait = 0
	}
	return &Debouncer[T]{action: action, wait: wait}
}

// Call zaznamená argument a restartuje čekání.
func (d *Debouncer[T]) Call(arg T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.lastArg = arg
	d.pending = true
	d.timer = time.AfterFunc(d.wait, func() { d.fire(gen) })
}

// Func vrací funkci se stejnou signaturou jako původní akce.
func (d *Debouncer[T]) Func() func(T) {
	return d.Call
}

// fire spustí akci, pokud mezitím nepřišlo novější volání (Stop nemusí stihnout zastavit timer).
func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || !d.pending {
		d.mu.Unlock()
		return
	}
	arg := d.lastArg
	d.pending = false
	d.timer = nil
	var zero T
	d.lastArg = zero
	d.mu.Unlock()

	d.run(arg)
}

func (d *Debouncer[T]) run(arg T) {
	d.runMu.Lock()
	defer d.runMu.Unlock()
	d.action(arg)
}

// Pending hlásí, zda čeká naplánované spuštění.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Stop zruší čekající spuštění. Je to teardown pro vlastníka, který Debouncer zahazuje
// (jinak by timer přežil komponentu). Vrací true, pokud něco čekalo.
func (d *Debouncer[T]) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	was := d.pending
	d.pending = false
	var zero T
	d.lastArg = zero
	return was
}

// Flush okamžitě spustí čekající akci (např. při vypínání služby). Bez čekání nic nedělá.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	arg := d.lastArg
	d.pending = false
	var zero T
	d.lastArg = zero
	d.mu.Unlock()

	d.run(arg)
	return true
}
