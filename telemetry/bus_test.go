package telemetry

import "testing"

func TestPublishDeliversToSubscriber(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")
	sub := conn.Subscribe(ChargerStateTopic())
	defer sub.Unsubscribe()

	conn.Publish(conn.NewMessage(ChargerStateTopic(), "enabled", false))

	select {
	case msg := <-sub.Channel():
		if msg.Payload != "enabled" {
			t.Fatalf("Payload = %v, want %q", msg.Payload, "enabled")
		}
	default:
		t.Fatal("expected a delivered message")
	}
}

func TestRetainedMessageReplaysToLateSubscriber(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("publisher")
	conn.Publish(conn.NewMessage(FaultTopic("cell_voltage_error"), true, true))

	late := b.NewConnection("late")
	sub := late.Subscribe(FaultTopic("cell_voltage_error"))
	defer sub.Unsubscribe()

	select {
	case msg := <-sub.Channel():
		if msg.Payload != true {
			t.Fatalf("Payload = %v, want true", msg.Payload)
		}
	default:
		t.Fatal("expected the retained message to replay on subscribe")
	}
}

func TestFaultWildcardMatchesAnyKind(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("publisher")
	sub := conn.Subscribe(FaultWildcardTopic())
	defer sub.Unsubscribe()

	conn.Publish(conn.NewMessage(FaultTopic("regulator_communication_error"), true, false))

	select {
	case msg := <-sub.Channel():
		if msg.Topic[1] != "regulator_communication_error" {
			t.Fatalf("Topic = %v, want fault/regulator_communication_error", msg.Topic)
		}
	default:
		t.Fatal("expected wildcard subscriber to receive the publish")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")
	sub := conn.Subscribe(BatteryStateTopic())
	sub.Unsubscribe()

	conn.Publish(conn.NewMessage(BatteryStateTopic(), "ok", false))

	if _, open := <-sub.Channel(); open {
		t.Fatal("expected channel to be closed after Unsubscribe")
	}
}
