package domain

// EndOfStream is the payload an agent sends as its final stream event.
const EndOfStream = "[END]"
