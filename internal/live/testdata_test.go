// SPDX-License-Identifier: MIT

package live

const landingWithLDJSON = `<!DOCTYPE html><html><head>
<script type="application/ld+json">{"@context":"https://schema.org","@type":"BreadcrumbList","itemListElement":[{"@type":"ListItem","item":{"@id":"https://www.youtube.com/@Example","name":"Example"}}]}</script>
<script type="application/ld+json">{"@context":"https://schema.org","@type":"VideoObject","name":"Live now","embedUrl":"https://www.youtube.com/embed/LDJ_123","publication":[{"@type":"BroadcastEvent","isLiveBroadcast":true}]}</script>
</head><body></body></html>`

const landingWithInitialData = `<!DOCTYPE html><html><head></head><body>
<script nonce="x">if (window.ytInitialData) { console.log("early"); }</script>
<script nonce="y">var ytInitialData = {"contents":{"twoColumnBrowseResultsRenderer":{"tabs":[{"tabRenderer":{"content":{"items":[
 {"videoRenderer":{"videoId":"VOD0001","badges":[{"metadataBadgeRenderer":{"style":"BADGE_STYLE_TYPE_SIMPLE"}}],"navigationEndpoint":{"watchEndpoint":{"videoId":"VOD0001"}}}},
 {"videoRenderer":{"videoId":"LIVE042","thumbnailOverlays":[{"thumbnailOverlayTimeStatusRenderer":{"style":"LIVE"}}],"navigationEndpoint":{"watchEndpoint":{"videoId":"LIVE042"}}}}
]}}}]}}};var other = 1;</script>
</body></html>`

const landingWithCanonical = `<!DOCTYPE html><html><head>
<link rel="canonical" href="https://www.youtube.com/watch?v=CANON01">
<meta property="og:url" content="https://www.youtube.com/watch?v=OGURL01">
</head><body></body></html>`

const landingWithOGOnly = `<!DOCTYPE html><html><head>
<link rel="canonical" href="https://www.youtube.com/channel/UC123">
<meta property="og:url" content="https://www.youtube.com/live/OGURL02">
</head><body></body></html>`

const landingOffline = `<!DOCTYPE html><html><head>
<link rel="canonical" href="https://www.youtube.com/channel/UC123">
<meta property="og:url" content="https://www.youtube.com/channel/UC123">
<script type="application/ld+json">{"@type":"Person","url":"https://www.youtube.com/@Example"}</script>
</head><body><script>var ytInitialData = {"contents":{"videoRenderer":{"videoId":"OLD0001"}}};</script></body></html>`

const watchPageLive = `<!DOCTYPE html><html><head>
<link rel="canonical" href="https://www.youtube.com/watch?v=OWNLIVE">
</head><body><script>var ytInitialData = {"currentVideoEndpoint":{"watchEndpoint":{"videoId":"OWNLIVE"}},"contents":{"twoColumnWatchNextResults":{
 "results":{"results":{"contents":[{"videoPrimaryInfoRenderer":{"viewCount":{"videoViewCountRenderer":{"isLive":true}}}},{"videoSecondaryInfoRenderer":{"owner":{"videoOwnerRenderer":{"title":{"runs":[{"text":"Example"}]}}}}}]}},
 "secondaryResults":{"secondaryResults":{"results":[{"compactVideoRenderer":{"videoId":"OTHERCH","badges":[{"metadataBadgeRenderer":{"style":"BADGE_STYLE_TYPE_LIVE_NOW"}}]}}]}},
 "autoplay":{"autoplay":{"sets":[{"autoplayVideo":{"watchEndpoint":{"videoId":"AUTOPLY"}},"videoId":"AUTOPLY","isLive":true}]}}
}}};</script></body></html>`

const watchPageEnded = `<!DOCTYPE html><html><head>
<link rel="canonical" href="https://www.youtube.com/watch?v=OWNVOD1">
</head><body><script>var ytInitialData = {"currentVideoEndpoint":{"watchEndpoint":{"videoId":"OWNVOD1"}},"contents":{"twoColumnWatchNextResults":{
 "results":{"results":{"contents":[{"videoPrimaryInfoRenderer":{"viewCount":{"videoViewCountRenderer":{"viewCount":{"simpleText":"12 views"}}}}}]}},
 "secondaryResults":{"secondaryResults":{"results":[{"compactVideoRenderer":{"videoId":"OTHERCH","badges":[{"metadataBadgeRenderer":{"style":"BADGE_STYLE_TYPE_LIVE_NOW"}}]}}]}}
}}};</script></body></html>`

const landingWithRelatedLive = `<!DOCTYPE html><html><head></head><body>
<script>var ytInitialData = {"contents":{"twoColumnBrowseResultsRenderer":{"tabs":[]}},"secondaryResults":{"results":[{"compactVideoRenderer":{"videoId":"OTHERCH","isLiveNow":true}}]}};</script>
</body></html>`

const landingWithEmbedPlaceholder = `<!DOCTYPE html><html><head>
<script type="application/ld+json">{"@type":"VideoObject","embedUrl":"https://www.youtube.com/embed/live_stream?channel=UC123"}</script>
<link rel="canonical" href="https://www.youtube.com/watch?v=CANON02">
</head><body></body></html>`
