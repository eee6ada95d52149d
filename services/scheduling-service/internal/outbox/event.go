package outbox

// Event is the domain event envelope written to the outbox table inside the
// same transaction as the state change it describes. The Kafka topic name
// equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// Event types emitted by the scheduling core. Consumers (notification,
// analytics) are external collaborators.
const (
	EventAppointmentBooked    = "scheduling.appointment.booked.v1"
	EventAppointmentApproved  = "scheduling.appointment.approved.v1"
	EventAppointmentRejected  = "scheduling.appointment.rejected.v1"
	EventAppointmentCompleted = "scheduling.appointment.completed.v1"
	EventAppointmentCancelled = "scheduling.appointment.cancelled.v1"
	EventDaySaved             = "scheduling.day.saved.v1"
)
