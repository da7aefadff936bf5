// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mup1coap

import "testing"

func TestDispatcher_OnDeliversRepeatedly(t *testing.T) {
	d := NewDispatcher(nil, nil, nil)
	count := 0
	d.On(EventPong, func(Event) { count++ })

	d.Dispatch(Frame{Type: TypePong})
	d.Dispatch(Frame{Type: TypePong})

	if count != 2 {
		t.Fatalf("On subscriber fired %d times, want 2", count)
	}
}

func TestDispatcher_OnceFiresExactlyOnce(t *testing.T) {
	d := NewDispatcher(nil, nil, nil)
	count := 0
	d.Once(EventPong, func(Event) { count++ })

	d.Dispatch(Frame{Type: TypePong})
	d.Dispatch(Frame{Type: TypePong})

	if count != 1 {
		t.Fatalf("Once subscriber fired %d times, want 1", count)
	}
}

func TestDispatcher_OnceRemovedEvenOnPanic(t *testing.T) {
	d := NewDispatcher(nil, nil, nil)
	count := 0
	d.Once(EventSystem, func(Event) {
		count++
		panic("boom")
	})

	d.Dispatch(Frame{Type: TypeSystem})
	d.Dispatch(Frame{Type: TypeSystem})

	if count != 1 {
		t.Fatalf("panicking Once subscriber fired %d times, want 1", count)
	}
}

func TestDispatcher_OtherSubscribersStillFireAfterPanic(t *testing.T) {
	d := NewDispatcher(nil, nil, nil)
	secondFired := false

	d.On(EventSystem, func(Event) { panic("boom") })
	d.On(EventSystem, func(Event) { secondFired = true })

	d.Dispatch(Frame{Type: TypeSystem})

	if !secondFired {
		t.Fatal("second subscriber did not fire after the first panicked")
	}
}

func TestDispatcher_Off(t *testing.T) {
	d := NewDispatcher(nil, nil, nil)
	count := 0
	id := d.On(EventPong, func(Event) { count++ })
	d.Off(EventPong, id)

	d.Dispatch(Frame{Type: TypePong})

	if count != 0 {
		t.Fatalf("subscriber fired %d times after Off, want 0", count)
	}
}

func TestDispatcher_AnnouncementParsedIntoInfo(t *testing.T) {
	d := NewDispatcher(nil, nil, nil)
	var got *DeviceInfo
	d.On(EventAnnounce, func(ev Event) { got = ev.Info })

	d.Dispatch(Frame{Type: TypeAnnounce, Payload: []byte("VelocitySP-v1.0-LAN9662-SN1 0 0 0")})

	if got == nil {
		t.Fatal("expected announcement event to carry parsed DeviceInfo")
	}
	if got.DeviceType != "LAN9662" {
		t.Errorf("DeviceType = %q, want %q", got.DeviceType, "LAN9662")
	}
}

func TestDispatcher_RegistrationOrderDelivery(t *testing.T) {
	d := NewDispatcher(nil, nil, nil)
	var order []int
	d.On(EventSystem, func(Event) { order = append(order, 1) })
	d.On(EventSystem, func(Event) { order = append(order, 2) })
	d.On(EventSystem, func(Event) { order = append(order, 3) })

	d.Dispatch(Frame{Type: TypeSystem})

	want := []int{1, 2, 3}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}
