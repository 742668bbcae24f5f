// Package siri flattens SIRI Lite stop monitoring documents into uniform
// tabular rows.
//
// The PRIM API nests each predicted arrival three to four levels deep
// (Siri -> ServiceDelivery -> StopMonitoringDelivery -> MonitoredStopVisit
// -> MonitoredVehicleJourney -> call details) and omits absent fields, so
// the column set varies between responses. Flatten hoists the nested
// structures to one map per visit and normalizes every value to a string.
//
// The pipeline is pure: no I/O, no shared state, identical input produces
// identical output.
package siri
