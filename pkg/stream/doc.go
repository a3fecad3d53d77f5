// Package stream serves a live womb bed.
//
// Server upgrades GET /bed to a websocket and sends binary frames of PCM
// paced in real time, one bed per connection. Text frames in both
// directions carry JSON control messages:
//
//	-> {"type":"set_heart_rate","bpm":72}
//	<- {"type":"heart_rate","heart_rate_bpm":72}
//	-> {"type":"stats"}
//	<- {"type":"stats","stats":{...}}
//	<- {"type":"error","message":"..."}
//
// The first message on every connection is {"type":"session",...} with the
// session id, seed and audio format.
//
// RTPSender sends the same audio as L16 RTP packets over UDP.
package stream
