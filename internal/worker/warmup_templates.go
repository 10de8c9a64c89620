package worker

import "github.com/driftmail/outreach/internal/outreach"

// WarmupTemplate is one canned warmup message. Bodies use the same template
// grammar as campaign content: {{firstName|there}} for the recipient and
// {{senderFirstName}} for the signature, with spintax for variety. Reply,
// continuation, and closer templates carry no subject; the thread subject is
// derived from the opening message.
type WarmupTemplate struct {
	Subject string
	Body    string
}

// WarmupTemplatePool returns the template pool for a message type.
func WarmupTemplatePool(msgType string) []WarmupTemplate {
	switch msgType {
	case outreach.WarmupTypeReply:
		return warmupReplyTemplates
	case outreach.WarmupTypeContinuation:
		return warmupContinuationTemplates
	case outreach.WarmupTypeCloser:
		return warmupCloserTemplates
	default:
		return warmupMainTemplates
	}
}

var warmupMainTemplates = []WarmupTemplate{
	{"Quick question for you", "Hey {{firstName|there}},\n\n{Hope your week is going well|Hope things are good on your end}. Did you ever get around to trying that productivity app you mentioned? I'm looking for something new.\n\n{Cheers|Best},\n{{senderFirstName}}"},
	{"Catching up", "Hi {{firstName|there}},\n\nIt's been a while since we last talked. How have things been? Would love to hear what you're working on these days.\n\nTalk soon,\n{{senderFirstName}}"},
	{"That article I mentioned", "Hey {{firstName|there}},\n\nI finally found that article about remote work trends I told you about. {Sending it over later today|I'll forward it shortly} — it's a good read.\n\nBest,\n{{senderFirstName}}"},
	{"Coffee sometime?", "Hi {{firstName|there}},\n\nAre you free for coffee {next week|sometime soon}? There's a new place downtown I've been meaning to try.\n\nCheers,\n{{senderFirstName}}"},
	{"Weekend plans", "Hey {{firstName|there}},\n\nAny plans for the weekend? {We're thinking of a short hike|I'm trying to get out of the city for a day} and wondered if you'd be interested.\n\nBest,\n{{senderFirstName}}"},
	{"Book recommendation", "Hi {{firstName|there}},\n\nJust finished a book I think you'd enjoy — it covers a lot of what we talked about last time. Want me to send you the title?\n\nCheers,\n{{senderFirstName}}"},
	{"Following up from last week", "Hey {{firstName|there}},\n\nWanted to follow up on our chat from last week. Did you decide which direction you're going with the project?\n\nBest,\n{{senderFirstName}}"},
	{"Saw this and thought of you", "Hi {{firstName|there}},\n\nCame across something today that reminded me of our conversation. {I'll share the details when we talk|Remind me to tell you about it}.\n\nTalk soon,\n{{senderFirstName}}"},
	{"Lunch next week?", "Hey {{firstName|there}},\n\nAre you around for lunch next week? {Tuesday or Thursday works for me|My calendar is fairly open}.\n\nCheers,\n{{senderFirstName}}"},
	{"How's the new role?", "Hi {{firstName|there}},\n\nHow's the new role treating you? Settling in okay? Would love to hear how the first few weeks went.\n\nBest,\n{{senderFirstName}}"},
	{"Podcast worth hearing", "Hey {{firstName|there}},\n\nListened to a great podcast episode on my commute — right up your alley. Want the link?\n\nCheers,\n{{senderFirstName}}"},
	{"Quick favor", "Hi {{firstName|there}},\n\nQuick favor — do you still have the notes from that workshop we attended? I can't find my copy anywhere.\n\nThanks,\n{{senderFirstName}}"},
	{"Happy Friday", "Hey {{firstName|there}},\n\nHappy Friday! Any exciting plans, or a quiet one this weekend?\n\nBest,\n{{senderFirstName}}"},
	{"Your thoughts?", "Hi {{firstName|there}},\n\nI'm weighing a couple of options on something and would value your take. Got five minutes this week for a quick call?\n\nCheers,\n{{senderFirstName}}"},
	{"Long time no talk", "Hey {{firstName|there}},\n\nRealized it's been months since we caught up. How's everything? {Work treating you well|Life keeping you busy}?\n\nBest,\n{{senderFirstName}}"},
	{"That restaurant", "Hi {{firstName|there}},\n\nFinally tried the restaurant you recommended. {You were right, it's excellent|Great call on the pasta}. What else should be on my list?\n\nCheers,\n{{senderFirstName}}"},
	{"Conference this year?", "Hey {{firstName|there}},\n\nAre you going to the conference this year? Trying to figure out if it's worth the trip.\n\nBest,\n{{senderFirstName}}"},
	{"Checking in", "Hi {{firstName|there}},\n\nJust checking in — how did the presentation go? I'm sure you nailed it.\n\nCheers,\n{{senderFirstName}}"},
	{"New project", "Hey {{firstName|there}},\n\nStarted a new side project recently and could use a sounding board. Mind if I pick your brain sometime?\n\nBest,\n{{senderFirstName}}"},
	{"Travel tips", "Hi {{firstName|there}},\n\nPlanning a trip {next month|later this year} and I remember you went last spring. Any tips on where to stay?\n\nThanks,\n{{senderFirstName}}"},
	{"Movie night", "Hey {{firstName|there}},\n\nHave you seen anything good lately? Looking for a movie for the weekend and my watchlist is empty.\n\nCheers,\n{{senderFirstName}}"},
	{"Congrats!", "Hi {{firstName|there}},\n\nSaw the news — congratulations! {Well deserved|Couldn't have happened to a better person}. We should celebrate soon.\n\nBest,\n{{senderFirstName}}"},
	{"Gym schedule", "Hey {{firstName|there}},\n\nStill going to the gym in the mornings? Thinking of switching my schedule and could use a workout partner.\n\nCheers,\n{{senderFirstName}}"},
	{"Recipe exchange", "Hi {{firstName|there}},\n\nMade that dish you posted about and it turned out great. Happy to trade recipes if you're collecting.\n\nBest,\n{{senderFirstName}}"},
	{"Question about your setup", "Hey {{firstName|there}},\n\nQuick question — what monitor setup are you running these days? Mine finally died and I need a replacement.\n\nThanks,\n{{senderFirstName}}"},
	{"Team news", "Hi {{firstName|there}},\n\nHeard your team shipped the big release. How did launch day go?\n\nCheers,\n{{senderFirstName}}"},
	{"Garden update", "Hey {{firstName|there}},\n\nThe tomatoes finally came in — you called it. How's your garden doing this season?\n\nBest,\n{{senderFirstName}}"},
	{"Running route", "Hi {{firstName|there}},\n\nFound a great new running route by the river. {You should join sometime|Let me know if you want the map}.\n\nCheers,\n{{senderFirstName}}"},
	{"Birthday plans", "Hey {{firstName|there}},\n\nAnything planned for the birthday this year, or keeping it low key?\n\nBest,\n{{senderFirstName}}"},
	{"That playlist", "Hi {{firstName|there}},\n\nStill listening to the playlist you shared. Any new additions I should know about?\n\nCheers,\n{{senderFirstName}}"},
	{"Car advice", "Hey {{firstName|there}},\n\nThinking about replacing the car and I know you did the research recently. Any models to avoid?\n\nThanks,\n{{senderFirstName}}"},
	{"Weather finally turned", "Hi {{firstName|there}},\n\nWeather finally turned nice here. {Patio season is officially open|Time to dust off the bike}. How's it looking your way?\n\nBest,\n{{senderFirstName}}"},
	{"Class recommendation", "Hey {{firstName|there}},\n\nDid you end up taking that online course? Debating whether to sign up for the next cohort.\n\nCheers,\n{{senderFirstName}}"},
	{"House update", "Hi {{firstName|there}},\n\nHow's the renovation coming along? Hopefully the contractor situation sorted itself out.\n\nBest,\n{{senderFirstName}}"},
	{"Quick hello", "Hey {{firstName|there}},\n\nNo agenda here — just saying hello. Hope everything's going well with you and the family.\n\nCheers,\n{{senderFirstName}}"},
	{"Photography question", "Hi {{firstName|there}},\n\nYour photos from the trip looked great. What camera are you shooting with these days?\n\nBest,\n{{senderFirstName}}"},
	{"Game night", "Hey {{firstName|there}},\n\nWe're putting together a game night {next Friday|soon}. You in?\n\nCheers,\n{{senderFirstName}}"},
	{"Market thoughts", "Hi {{firstName|there}},\n\nCurious what you make of the market lately. You always have a more level-headed take than the headlines.\n\nBest,\n{{senderFirstName}}"},
	{"Dog park", "Hey {{firstName|there}},\n\nWe've been taking the dog to the new park on 5th. You should bring yours sometime — they'd get along.\n\nCheers,\n{{senderFirstName}}"},
	{"Keyboard shortcut", "Hi {{firstName|there}},\n\nYou mentioned a shortcut that saved you hours — I forgot to write it down. What was it again?\n\nThanks,\n{{senderFirstName}}"},
	{"Ski season", "Hey {{firstName|there}},\n\nSeason passes go on sale next week. Are we doing the mountain trip again this year?\n\nBest,\n{{senderFirstName}}"},
	{"New coffee spot", "Hi {{firstName|there}},\n\nFound a coffee spot that actually does a proper flat white. We should meet there next time.\n\nCheers,\n{{senderFirstName}}"},
	{"Volunteer day", "Hey {{firstName|there}},\n\nThe shelter is doing another volunteer day {this month|soon}. Thought you might want to join again.\n\nBest,\n{{senderFirstName}}"},
	{"Your talk", "Hi {{firstName|there}},\n\nHeard you gave a talk last month. Is there a recording? Would love to watch it.\n\nCheers,\n{{senderFirstName}}"},
	{"Apartment hunting", "Hey {{firstName|there}},\n\nStill apartment hunting? A place opened up in my building that might fit what you described.\n\nBest,\n{{senderFirstName}}"},
	{"Old photos", "Hi {{firstName|there}},\n\nFound some old photos from the college days while cleaning up my drive. Prepare to be embarrassed — sending a few over.\n\nCheers,\n{{senderFirstName}}"},
	{"Fantasy league", "Hey {{firstName|there}},\n\nLeague signups are open again. Are you defending your title this year or retiring as champion?\n\nBest,\n{{senderFirstName}}"},
	{"Meal prep", "Hi {{firstName|there}},\n\nTrying to get back into meal prepping. You had a system that worked — care to share the basics?\n\nThanks,\n{{senderFirstName}}"},
	{"Museum exhibit", "Hey {{firstName|there}},\n\nThere's a new exhibit opening at the museum {this weekend|next week}. Interested in checking it out together?\n\nCheers,\n{{senderFirstName}}"},
	{"Bike repair", "Hi {{firstName|there}},\n\nMy bike needs work and I remember you know a good shop. Who do you use?\n\nThanks,\n{{senderFirstName}}"},
	{"Quarterly catch-up", "Hey {{firstName|there}},\n\nWe said we'd do a quarterly catch-up and it's that time again. When works for you?\n\nBest,\n{{senderFirstName}}"},
	{"Newsletter find", "Hi {{firstName|there}},\n\nSubscribed to a newsletter recently that I think you'd like — short, sharp, and actually useful. Want me to forward an issue?\n\nCheers,\n{{senderFirstName}}"},
	{"Home office", "Hey {{firstName|there}},\n\nFinally upgrading the home office. Any regrets from your setup I should learn from?\n\nBest,\n{{senderFirstName}}"},
	{"Concert tickets", "Hi {{firstName|there}},\n\nTickets for the show go on sale Thursday. Should I grab you one too?\n\nCheers,\n{{senderFirstName}}"},
	{"Language practice", "Hey {{firstName|there}},\n\nStill practicing Spanish? I found a conversation group that meets Wednesdays if you want to join.\n\nBest,\n{{senderFirstName}}"},
	{"Tax season", "Hi {{firstName|there}},\n\nTax season again. Are you still happy with your accountant? Mine retired and I need a referral.\n\nThanks,\n{{senderFirstName}}"},
	{"Trail conditions", "Hey {{firstName|there}},\n\nPlanning to hit the trail Saturday morning. You were up there recently — how were the conditions?\n\nCheers,\n{{senderFirstName}}"},
	{"Board game rec", "Hi {{firstName|there}},\n\nWe played a board game at a friend's place that your group would love. Remind me to tell you about it.\n\nBest,\n{{senderFirstName}}"},
	{"Mentorship question", "Hey {{firstName|there}},\n\nSomeone on my team asked about finding a mentor and I thought of how you set up your program. Can I connect you two?\n\nThanks,\n{{senderFirstName}}"},
	{"Weekend market", "Hi {{firstName|there}},\n\nThe weekend market is back on. {We're going Sunday morning|Thinking of going early Sunday} if you want to come.\n\nCheers,\n{{senderFirstName}}"},
	{"Laptop advice", "Hey {{firstName|there}},\n\nMy laptop is on its last legs. You went through this recently — what did you end up buying?\n\nThanks,\n{{senderFirstName}}"},
	{"Reading group", "Hi {{firstName|there}},\n\nThe reading group picked a new book and it's actually good this time. Want back in?\n\nBest,\n{{senderFirstName}}"},
	{"Soup season", "Hey {{firstName|there}},\n\nIt's officially soup season. I'm making a batch of the one you liked — want me to set some aside?\n\nCheers,\n{{senderFirstName}}"},
	{"Job lead", "Hi {{firstName|there}},\n\nA friend's company is hiring for a role that sounds like your background. Want me to make an intro?\n\nBest,\n{{senderFirstName}}"},
	{"Tennis?", "Hey {{firstName|there}},\n\nThe courts by my place are finally open again. Up for a match {this week|sometime soon}?\n\nCheers,\n{{senderFirstName}}"},
	{"Documentary", "Hi {{firstName|there}},\n\nWatched a documentary last night that I haven't stopped thinking about. Adding it to your list — you'll see why.\n\nBest,\n{{senderFirstName}}"},
	{"Neighborhood news", "Hey {{firstName|there}},\n\nDid you hear they're finally fixing the bridge? Only took three years of complaints.\n\nCheers,\n{{senderFirstName}}"},
	{"Plant care", "Hi {{firstName|there}},\n\nThe plant you gave me is somehow still alive — a personal record. Any tips before winter?\n\nBest,\n{{senderFirstName}}"},
	{"Study group", "Hey {{firstName|there}},\n\nA few of us are forming a study group for the certification exam. Room for one more if you're interested.\n\nCheers,\n{{senderFirstName}}"},
	{"Farmers market haul", "Hi {{firstName|there}},\n\nThe farmers market had the good peaches this week. Grabbed extra — want some?\n\nBest,\n{{senderFirstName}}"},
	{"Year-end plans", "Hey {{firstName|there}},\n\nCan you believe the year is almost over? Any big plans before it wraps up?\n\nCheers,\n{{senderFirstName}}"},
	{"Printer saga", "Hi {{firstName|there}},\n\nYou'll appreciate this — the printer saga continues. Third one this year. What brand do you swear by?\n\nBest,\n{{senderFirstName}}"},
	{"Camping gear", "Hey {{firstName|there}},\n\nBorrowing request: do you still have that two-person tent? We're going up the coast {next weekend|soon}.\n\nThanks,\n{{senderFirstName}}"},
	{"Trivia night", "Hi {{firstName|there}},\n\nTrivia night is back at the usual place. We need your geography knowledge — team falls apart without you.\n\nCheers,\n{{senderFirstName}}"},
	{"Recipe disaster", "Hey {{firstName|there}},\n\nAttempted your bread recipe. Results were... structural. Where did I go wrong?\n\nBest,\n{{senderFirstName}}"},
	{"Early riser", "Hi {{firstName|there}},\n\nTrying the early morning routine you mentioned. Day three and I have questions. Mainly: how?\n\nCheers,\n{{senderFirstName}}"},
	{"Borrowed book", "Hey {{firstName|there}},\n\nI still have your book, don't worry — finishing the last chapter this week. Coffee when I return it?\n\nBest,\n{{senderFirstName}}"},
	{"Side hustle", "Hi {{firstName|there}},\n\nHow's the side business going? Saw the website update — looking sharp.\n\nCheers,\n{{senderFirstName}}"},
	{"Winter tires", "Hey {{firstName|there}},\n\nIs it time for winter tires yet? You always seem to time it right and I always wait too long.\n\nBest,\n{{senderFirstName}}"},
	{"Puzzle progress", "Hi {{firstName|there}},\n\nUpdate on the thousand-piece puzzle: we found the missing edge piece. It was in the couch. Victory is near.\n\nCheers,\n{{senderFirstName}}"},
	{"New neighbor", "Hey {{firstName|there}},\n\nNew neighbors moved in and they have a boat. I'm befriending them strategically. Want in on this?\n\nBest,\n{{senderFirstName}}"},
	{"Conference notes", "Hi {{firstName|there}},\n\nTook decent notes at the conference you missed. Happy to walk you through the highlights over lunch.\n\nCheers,\n{{senderFirstName}}"},
	{"Half marathon", "Hey {{firstName|there}},\n\nSigned up for the half marathon in the spring. This is your formal invitation to suffer alongside me.\n\nBest,\n{{senderFirstName}}"},
	{"Office plants", "Hi {{firstName|there}},\n\nThe office plant situation has gotten out of hand in the best way. You inspired this. Photos incoming.\n\nCheers,\n{{senderFirstName}}"},
	{"Streaming rec", "Hey {{firstName|there}},\n\nTwo episodes into the show everyone's talking about. Verdict so far: they're right. Have you started it?\n\nBest,\n{{senderFirstName}}"},
	{"Road trip", "Hi {{firstName|there}},\n\nMapping out a road trip for {the spring|next month}. You did a similar route — which stops were worth it?\n\nThanks,\n{{senderFirstName}}"},
	{"Pottery class", "Hey {{firstName|there}},\n\nTook a pottery class on a whim. Made what can generously be called a bowl. When are you joining?\n\nCheers,\n{{senderFirstName}}"},
	{"Headphone advice", "Hi {{firstName|there}},\n\nMy headphones died mid-flight. You researched this for weeks — what should I get?\n\nThanks,\n{{senderFirstName}}"},
	{"Snow day", "Hey {{firstName|there}},\n\nFirst snow of the year here. The dog is thrilled, the driveway is not. How's your winter starting?\n\nBest,\n{{senderFirstName}}"},
	{"Group dinner", "Hi {{firstName|there}},\n\nTrying to get the old group together for dinner {next month|soon}. Which weekends are you around?\n\nCheers,\n{{senderFirstName}}"},
	{"Sourdough status", "Hey {{firstName|there}},\n\nThe sourdough starter lives. Week six. I've named it. Is this normal? Asking as someone who now bakes weekly.\n\nBest,\n{{senderFirstName}}"},
	{"Library find", "Hi {{firstName|there}},\n\nThe library book sale is this weekend — remember the haul we got last year? Same time Saturday?\n\nCheers,\n{{senderFirstName}}"},
	{"Wi-Fi woes", "Hey {{firstName|there}},\n\nYou fixed your dead-zone problem last year. What router did you end up with? Mine's driving me up the wall.\n\nThanks,\n{{senderFirstName}}"},
	{"Marathon spectating", "Hi {{firstName|there}},\n\nThe marathon passes right by my street this year. Making signs and snacks — come watch with us.\n\nBest,\n{{senderFirstName}}"},
	{"Chess rematch", "Hey {{firstName|there}},\n\nI've been practicing. This is your formal notice: I want a rematch. Name the time.\n\nCheers,\n{{senderFirstName}}"},
	{"Thrift score", "Hi {{firstName|there}},\n\nYou'd be proud — found a mid-century desk at the thrift store for almost nothing. The hunt continues. What are you looking for these days?\n\nBest,\n{{senderFirstName}}"},
	{"Aquarium trip", "Hey {{firstName|there}},\n\nThe aquarium has a new deep-sea exhibit. The kids are demanding a visit — join us {Saturday|this weekend}?\n\nCheers,\n{{senderFirstName}}"},
	{"Standing desk", "Hi {{firstName|there}},\n\nA month into the standing desk experiment. Results mixed. You've had one for years — does it actually stick?\n\nBest,\n{{senderFirstName}}"},
	{"Soup exchange", "Hey {{firstName|there}},\n\nProposal: a soup exchange. I make a double batch, you make a double batch, we trade. Winter solved.\n\nCheers,\n{{senderFirstName}}"},
	{"Karaoke night", "Hi {{firstName|there}},\n\nThe karaoke place reopened. I know what you're thinking, and yes, we're doing the duet again.\n\nBest,\n{{senderFirstName}}"},
	{"Bad weather driving", "Hey {{firstName|there}},\n\nThat storm last night was something. Everything okay on your side of town?\n\nBest,\n{{senderFirstName}}"},
	{"Cooking class", "Hi {{firstName|there}},\n\nThere's a pasta-making class at the community center {next weekend|this month}. Limited spots — want me to book two?\n\nCheers,\n{{senderFirstName}}"},
	{"New hobby", "Hey {{firstName|there}},\n\nI've taken up woodworking. So far I've made sawdust and one crooked shelf. It's going great. What's new with you?\n\nBest,\n{{senderFirstName}}"},
	{"Spring cleaning", "Hi {{firstName|there}},\n\nSpring cleaning unearthed the jacket you lent me two winters ago. Returning it with interest — coffee's on me.\n\nCheers,\n{{senderFirstName}}"},
	{"Sunday dinner", "Hey {{firstName|there}},\n\nWe're doing a proper Sunday dinner {this weekend|soon} and the table has one empty seat with your name on it. Interested?\n\nBest,\n{{senderFirstName}}"},
}

var warmupReplyTemplates = []WarmupTemplate{
	{"", "Hey {{firstName|there}},\n\nGood to hear from you! {Things have been busy but good|All good on my end}. Let's definitely catch up properly soon.\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nThanks for reaching out! Yes — I'd be up for that. {Next week works|Let me check my calendar and get back to you}.\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nHa, I was just thinking about this the other day. Great timing. Let me get back to you with details {tomorrow|later this week}.\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nGood question — I'll dig up the info and send it over. How have you been otherwise?\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nYes! Count me in. Just tell me when and where.\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nSo glad you asked. I have strong opinions on this one — might be easier over a call. Free Thursday?\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nThanks for the nudge, I owe you a reply from ages ago. Short version: all good here, long version over coffee?\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nFunny you mention it — I was about to email you the same thing. Great minds. Let's compare notes.\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nAppreciate you thinking of me. The answer is a definite maybe — can I confirm by {Friday|the weekend}?\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nThat sounds great. I've been meaning to get out more anyway. Send me the details when you have them.\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nYou read my mind. I was literally talking about this yesterday. Yes to all of it.\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nThanks for checking in! It went {better than expected|pretty well, all things considered}. I'll tell you the full story when we meet.\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nOof, good timing — I almost double-booked that week. {Tuesday|Thursday} works best for me if that suits you.\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nYes, still have it! I'll bring it next time we meet, or you can swing by whenever.\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nThis is why we're friends. Absolutely — let me move a few things around and I'll confirm.\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nHonestly, it's been a whirlwind, but a good one. How about you? You sounded busy last time too.\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nI'd love that. It's been way too long. {Weekends are best for me|Evenings work well these days}.\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nGreat to hear from you! Quick answer: yes. Longer answer coming when I'm not running between meetings.\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nYou always find the good stuff. Send it over — I need something new.\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nThanks for the reminder, it completely slipped my mind. On it now. How's everything else?\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nSolid plan. I'm in. Should we invite the others or keep it small this time?\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nWhat a coincidence — I'm free that exact day. The universe has spoken. Let's do it.\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nGood to hear things are moving. Keep me posted on how it develops — genuinely curious about this one.\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nI laughed out loud at this. Yes, obviously. When has that ever gone wrong for us?\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nPerfect timing — I just freed up {next week|this weekend}. Let's lock something in before my calendar fills again.\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nYou know what, yes. I've been saying no to too many things lately. Count me in.\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nI was hoping you'd ask. Already looking forward to it.\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nGreat minds — I drafted almost the same message to you last night and never hit send. Yes, let's do it.\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nAll good here! The short update: new projects, same chaos. Yours?\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nThat's very kind of you to offer. I'll take you up on it — thank you!\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nHmm, let me think... yes. The answer was always going to be yes.\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nThanks for sharing this — exactly the kind of thing I needed today. More soon.\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nStill recovering from how accurate this is. Let's discuss over food, as is tradition.\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nI checked my notes and I do have what you need. Sending it your way {today|tonight}.\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nYou're the second person to recommend this — that settles it, I'm in.\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nMissed you too! Things got hectic but the dust is settling. Let's get something on the calendar.\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nShort answer: yes and yes. Long answer requires snacks. You know where I stand.\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nAppreciate you remembering! It means a lot. And yes, the project finally shipped.\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nThis made my morning. Deal — but only if I can bring dessert this time.\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nI've consulted the calendar and the calendar says yes. Sending you a couple of options.\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nWhat would I do without you keeping me in the loop? In, obviously.\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nGood news: yes. Better news: I also have a story for you from last weekend. It's a long one.\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nOkay, you've convinced me. But if this goes sideways, it's officially your idea.\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nThanks for following up — yes, got it handled. Saved me a headache, honestly.\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nYou had me at hello. Pencil me in and I'll make it work.\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nReal answer: things are good, just full. Taking you up on this is exactly the break I need.\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nLove this idea. Already told the household — we're committed now, no backing out.\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nHow did you know I needed this today? Yes to everything. Details when you have them.\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nConfirmed from my side. Want me to handle the booking or will you?\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nYou always know the right thing to send. Consider me fully on board.\n\nCheers,\n{{senderFirstName}}"},
}

var warmupContinuationTemplates = []WarmupTemplate{
	{"", "Hey {{firstName|there}},\n\nFollowing up on this — did {Thursday|the weekend} end up working for you?\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nQuick addition to my last note: turns out there's a second option too. Even better. Details below when we talk.\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nForgot to mention — bring the notes from last time if you still have them. Will save us an hour.\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nSmall update: the plan moved to {Saturday|next week}, same place. Hope that still works.\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nOne more thing — should we invite the rest of the crew, or keep this one small?\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nChecked on my end and we're all set. Just confirm your side and we're good to go.\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nThought about this more overnight. I think your first instinct was right. Let's go with that.\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nUpdate from my end: found the thing I mentioned. Even better than I remembered. You'll see.\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nAlso meant to ask — how did that other thing turn out? You left me on a cliffhanger.\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nGood news: got the confirmation today. We're officially on. More details {tomorrow|soon}.\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nCircling back on this one — no rush, just don't want it to slip through the cracks again.\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nScratch my last suggestion — found a better option. Trust me on this one.\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nAdding to the pile: two more ideas came up since we talked. Ranked list coming your way.\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nQuick check — does {noon|early evening} still work? I can shift things either way.\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nThe plot thickens — just heard back from the others and they're all in. This is happening.\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nMinor logistics update: parking is terrible there, so let's meet at the corner entrance instead.\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nRan the idea past a friend who knows this space. Verdict: green light. Full speed ahead.\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nRealized I never answered your actual question. The answer is yes, with one small caveat I'll explain in person.\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nStill on for this? My week shifted around, but I protected our slot.\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nAppendix to my last message: bring an appetite. That's all I'll say.\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nWeather looks {great|iffy} for the day we picked. Backup plan: same time, indoor version. Thoughts?\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nOne thing I forgot: they close early on Sundays. Let's aim a bit earlier than planned.\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nSmall victory to report: the thing we discussed is already half done. Momentum is real.\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nNew information has come to light. Nothing bad — actually it makes everything easier. Call me when free.\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nI did the research I promised. Spreadsheet exists. Yes, I made a spreadsheet. Judge me later.\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nBefore I forget again: yes to your earlier question, and also — did you still want the spare one?\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nFinal headcount question: plus-ones welcome or keeping it to the core group?\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nUpdate: tickets secured. You owe me one beverage of my choosing. Standard rates.\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nTiny change of plans — can we push thirty minutes later? Everything else stays the same.\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nSpoke to the venue and we're confirmed. Bringing the stuff we talked about. See you there.\n\nCheers,\n{{senderFirstName}}"},
}

var warmupCloserTemplates = []WarmupTemplate{
	{"", "Hey {{firstName|there}},\n\nPerfect, sounds like a plan. See you then!\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nGreat — it's settled then. Looking forward to it. Have a good rest of the week!\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nAwesome, we're all set. Thanks for sorting this out. Talk soon!\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nDeal. Consider it locked in. Catch you {then|soon}!\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nCouldn't have planned it better. See you on the day — I'll bring the snacks.\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nAll confirmed on my end too. This was easier than expected. Until then!\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nLove it. Nothing more from me — see you there.\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nThat settles everything. Thanks for being so easy to plan with. Talk soon!\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nWe're set! Don't forget the thing. You know the thing. See you soon.\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nExcellent. Calendar updated, reminders set, enthusiasm high. Until then!\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nGreat talking as always. Let's not leave it so long next time. Take care!\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nSounds perfect. Have a great {week|weekend} and see you soon!\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nDone and done. Appreciate you making this easy. Catch you later!\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nWonderful — that works perfectly. Nothing else needed from my side. Talk soon!\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nAlright, it's official. Looking forward to it more than I should admit. See you!\n\nBest,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nPerfect ending to the planning. See you at the usual spot. Cheers!\n\nBest,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nThat's everything sorted. Thanks again — this is going to be great. Until then!\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nCopy that. All set here. Enjoy the rest of your day and see you soon!\n\nBest,\n{{senderFirstName}}"},
	{"", "Hey {{firstName|there}},\n\nAnd with that, we have a plan. Historic. See you on the day!\n\nCheers,\n{{senderFirstName}}"},
	{"", "Hi {{firstName|there}},\n\nGreat — consider this thread officially a success. Talk soon and take care!\n\nBest,\n{{senderFirstName}}"},
}
