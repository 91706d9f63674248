// Package message defines rooms and the chat messages posted to them.
//
// A RoomKey names one conversation: the room of an order, the room of a
// trip, or a direct chat between two participants. Messages are stored with
// their room key and read back in creation order.
package message
