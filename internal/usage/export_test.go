package usage

var JobFilter = jobFilter
